package database

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xelth-com/eckreceive/internal/config"
	"github.com/xelth-com/eckreceive/internal/models"
)

const (
	embeddedDataPath = "./db_data"
	embeddedPort     = 5433
)

// DB wraps gorm.DB and keeps the embedded postgres process when one was started
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
	log      *zap.SugaredLogger
}

// Wrap adopts an already opened gorm connection.
func Wrap(db *gorm.DB, log *zap.SugaredLogger) *DB {
	return &DB{DB: db, log: log}
}

// cleanupStaleEmbedded removes a postmaster.pid left behind by a crashed run
func cleanupStaleEmbedded(log *zap.SugaredLogger) {
	pidFile := filepath.Join(embeddedDataPath, "postmaster.pid")

	data, err := os.ReadFile(pidFile)
	if err != nil {
		return
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	if !scanner.Scan() {
		return
	}
	pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		log.Warnf("could not parse pid from postmaster.pid: %v", err)
		return
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		log.Infof("removing stale postmaster.pid (pid %d not found)", pid)
		_ = os.Remove(pidFile)
		return
	}

	// signal 0 probes liveness on unix
	if err := process.Signal(syscall.Signal(0)); err != nil {
		log.Infof("removing stale postmaster.pid (pid %d not running)", pid)
		_ = os.Remove(pidFile)
		return
	}

	log.Warnf("orphaned postgres process %d found, stopping it", pid)
	_ = process.Signal(syscall.SIGTERM)
	for i := 0; i < 10; i++ {
		time.Sleep(500 * time.Millisecond)
		if err := process.Signal(syscall.Signal(0)); err != nil {
			_ = os.Remove(pidFile)
			return
		}
	}

	log.Warnf("postgres process %d ignored SIGTERM, killing", pid)
	_ = process.Kill()
	time.Sleep(500 * time.Millisecond)
	_ = os.Remove(pidFile)
}

func isPortInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Connect opens the receiving database. A localhost host without a password
// starts an embedded postgres instance instead of dialing an external server.
func Connect(cfg config.DatabaseConfig, log *zap.SugaredLogger) (*DB, error) {
	var embedded *embeddedpostgres.EmbeddedPostgres

	isEmbedded := cfg.Host == "localhost" && cfg.Password == ""

	password := cfg.Password
	if isEmbedded {
		log.Info("database mode: embedded postgres")

		cleanupStaleEmbedded(log)

		if isPortInUse(embeddedPort) {
			log.Warnf("port %d still in use, waiting for release", embeddedPort)
			for i := 0; i < 6 && isPortInUse(embeddedPort); i++ {
				time.Sleep(500 * time.Millisecond)
			}
			if isPortInUse(embeddedPort) {
				return nil, fmt.Errorf("port %d is still in use by another process", embeddedPort)
			}
		}

		embeddedCfg := embeddedpostgres.DefaultConfig().
			DataPath(embeddedDataPath).
			Port(uint32(embeddedPort)).
			Database(cfg.Database).
			Username(cfg.Username).
			Password("postgres")

		embedded = embeddedpostgres.NewDatabase(embeddedCfg)
		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("failed to start embedded database: %w", err)
		}

		cfg.Port = strconv.Itoa(embeddedPort)
		password = "postgres"
		log.Infof("embedded postgres started on port %d", embeddedPort)
	} else {
		log.Infof("database mode: external postgres at %s:%s", cfg.Host, cfg.Port)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, password, cfg.Database,
	)

	logLevel := logger.Warn
	if cfg.Alter {
		logLevel = logger.Silent
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("database connection established")

	return &DB{DB: db, embedded: embedded, log: log}, nil
}

// Migrate creates or updates every table the receiving service owns
func (db *DB) Migrate() error {
	return db.DB.AutoMigrate(
		&models.Product{},
		&models.ReceiptAlias{},
		&models.Purchase{},
		&models.PurchaseLine{},
		&models.InventoryMovement{},
	)
}

// Close shuts down the connection pool and the embedded process if any
func (db *DB) Close() error {
	if db.embedded != nil {
		if db.log != nil {
			db.log.Info("stopping embedded postgres")
		}
		_ = db.embedded.Stop()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
