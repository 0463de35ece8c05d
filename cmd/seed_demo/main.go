package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckreceive/internal/alias"
	"github.com/xelth-com/eckreceive/internal/catalog"
	"github.com/xelth-com/eckreceive/internal/config"
	"github.com/xelth-com/eckreceive/internal/database"
	"github.com/xelth-com/eckreceive/internal/logging"
	"github.com/xelth-com/eckreceive/internal/models"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

var demoProducts = []catalog.NewProduct{
	{Barcode: "012345678905", Name: "Murdered Out", Brand: "Black Rifle Coffee Company", Category: models.CategoryBeverage, DefaultPrice: price("4.98")},
	{Barcode: "0757528000001", Name: "Fuego Rolled Tortilla Chips", Brand: "Takis", Category: models.CategorySnack, DefaultPrice: price("2.49")},
	{Barcode: "0889392000001", Name: "Sparkling Orange", Brand: "Celsius", Category: models.CategoryBeverage, DefaultPrice: price("1.99")},
	{Barcode: "0611269000001", Name: "Sugarfree", Brand: "Red Bull", Category: models.CategoryBeverage, DefaultPrice: price("2.29")},
	{Barcode: "0041570000001", Name: "Turkey Club Sandwich", Brand: "Fresh Kitchen", Category: models.CategoryMeal},
}

// receipt text the demo store prints for some of the products above
var demoAliases = map[string]string{
	"0611269000001": "RB SF",
	"0889392000001": "CELS ORNG",
}

func main() {
	reset := flag.Bool("reset", false, "truncate catalog and alias tables first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	logger := logging.Nop()

	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	if *reset {
		fmt.Println("🗑️  Clearing catalog and aliases...")
		db.Exec("TRUNCATE TABLE receipt_aliases RESTART IDENTITY")
		db.Exec("TRUNCATE TABLE products RESTART IDENTITY CASCADE")
	}

	ctx := context.Background()
	products := catalog.NewGormCatalog(db.DB)
	resolver := catalog.NewResolver(products, nil, logger)
	repo := alias.NewGormRepository(db.DB)
	aliases := alias.NewStore(repo)
	if err := aliases.Load(ctx); err != nil {
		log.Fatalf("❌ Failed to load aliases: %v", err)
	}

	created := 0
	for _, p := range demoProducts {
		product, err := products.FindByBarcode(ctx, p.Barcode)
		if err == nil {
			fmt.Printf("   = %s already in catalog\n", p.Barcode)
		} else {
			product, err = resolver.CreateProduct(ctx, p)
			if err != nil {
				fmt.Printf("   ⚠️  %s %s: %v\n", p.Barcode, p.Name, err)
				continue
			}
			created++
			fmt.Printf("   ✓ %s %s %s\n", product.Barcode, product.Brand, product.Name)
		}

		if text, ok := demoAliases[p.Barcode]; ok {
			if _, known := aliases.Lookup("", text); known {
				continue
			}
			if _, err := aliases.Remember(ctx, "", text, product.ID); err != nil {
				fmt.Printf("   ⚠️  alias %q: %v\n", text, err)
			}
		}
	}

	fmt.Printf("✅ Seeded %d products, %d aliases\n", created, len(aliases.All()))
}
