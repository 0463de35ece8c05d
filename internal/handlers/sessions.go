package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckreceive/internal/catalog"
	"github.com/xelth-com/eckreceive/internal/middleware"
	"github.com/xelth-com/eckreceive/internal/reconcile"
)

type scanRequest struct {
	Barcode string `json:"barcode" validate:"required,max=64"`
}

type scanResponse struct {
	Item       reconcile.Item     `json:"item"`
	Resolution catalog.Resolution `json:"resolution"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
	Delta    *int `json:"delta"`
}

type costRequest struct {
	UnitCost *decimal.Decimal `json:"unit_cost"`
}

type detailsRequest struct {
	StoreName    *string          `json:"store_name" validate:"omitempty,max=120"`
	PurchaseDate *string          `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	ReceiptTotal *decimal.Decimal `json:"receipt_total"`
	ClearTotal   bool             `json:"clear_total"`
}

func (r *Router) createSession(w http.ResponseWriter, req *http.Request) {
	s := r.sessions.Create(middleware.PurchaserFrom(req.Context()))
	r.log.Infow("receiving session started", "session", s.ID, "purchaser", s.Purchaser)
	respondJSON(w, http.StatusCreated, s.Snapshot())
}

func (r *Router) getSession(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.Snapshot())
}

func (r *Router) discardSession(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	if _, err := r.orch.Transition(req.Context(), s, reconcile.StageDiscarded); err != nil {
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.discarded")
	r.sessions.Remove(s.ID)
	w.WriteHeader(http.StatusNoContent)
}

// resolveProduct looks a barcode up without adding it to a session
func (r *Router) resolveProduct(w http.ResponseWriter, req *http.Request) {
	res, err := r.resolver.Resolve(req.Context(), mux.Vars(req)["barcode"])
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (r *Router) scan(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	var body scanRequest
	if !r.decode(w, req, &body) {
		return
	}

	res, err := r.resolver.Resolve(req.Context(), body.Barcode)
	if err != nil {
		respondError(w, req, err)
		return
	}
	item, err := s.AddScan(res)
	if err != nil {
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.updated")
	respondJSON(w, http.StatusOK, scanResponse{Item: item, Resolution: res})
}

func (r *Router) setQuantity(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	var body quantityRequest
	if !r.decode(w, req, &body) {
		return
	}

	barcode := mux.Vars(req)["barcode"]
	var err error
	switch {
	case body.Quantity != nil:
		err = s.SetQuantity(barcode, *body.Quantity)
	case body.Delta != nil:
		err = s.AdjustQuantity(barcode, *body.Delta)
	default:
		badRequest(w, req, "quantity or delta is required")
		return
	}
	if err != nil {
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.updated")
	respondJSON(w, http.StatusOK, s.Snapshot())
}

func (r *Router) removeItem(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	if err := s.RemoveItem(mux.Vars(req)["barcode"]); err != nil {
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.updated")
	respondJSON(w, http.StatusOK, s.Snapshot())
}

func (r *Router) setCost(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	var body costRequest
	if !r.decode(w, req, &body) {
		return
	}
	if err := s.SetCost(mux.Vars(req)["barcode"], body.UnitCost); err != nil {
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.updated")
	respondJSON(w, http.StatusOK, s.Snapshot())
}

// createProduct saves a catalog entry for an item the catalog did not know
func (r *Router) createProduct(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	// CreateProduct validates once the barcode is taken from the path
	var body catalog.NewProduct
	if !readJSON(w, req, &body) {
		return
	}
	body.Barcode = mux.Vars(req)["barcode"]
	for _, it := range s.Snapshot().Items {
		if it.Barcode == body.Barcode && it.Source == catalog.SourceExternal {
			body.Source = catalog.SourceExternal
			body.LookupData = it.LookupData
		}
	}

	p, err := r.resolver.CreateProduct(req.Context(), body)
	if err != nil {
		respondError(w, req, err)
		return
	}
	if err := s.AttachProduct(body.Barcode, p); err != nil {
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.updated")
	respondJSON(w, http.StatusCreated, p)
}

func (r *Router) setDetails(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	var body detailsRequest
	if !r.decode(w, req, &body) {
		return
	}

	d := reconcile.Details{
		StoreName:     body.StoreName,
		DeclaredTotal: body.ReceiptTotal,
		ClearTotal:    body.ClearTotal,
	}
	if body.PurchaseDate != nil {
		date, err := time.Parse("2006-01-02", *body.PurchaseDate)
		if err != nil {
			badRequest(w, req, "purchase_date must be YYYY-MM-DD")
			return
		}
		d.PurchaseDate = &date
	}

	if err := s.SetDetails(d); err != nil {
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.updated")
	respondJSON(w, http.StatusOK, s.Snapshot())
}
