package handlers

import (
	"net/http"

	"github.com/xelth-com/eckreceive/internal/printer"
	"github.com/xelth-com/eckreceive/internal/reconcile"
)

type stageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

type pairRequest struct {
	Barcode   string `json:"barcode" validate:"required"`
	LineIndex *int   `json:"line_index" validate:"required"`
}

type barcodeRequest struct {
	Barcode string `json:"barcode" validate:"required"`
}

type submitResponse struct {
	PurchaseID uint             `json:"purchase_id"`
	Report     reconcile.Report `json:"report"`
}

func (r *Router) transition(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	var body stageRequest
	if !r.decode(w, req, &body) {
		return
	}
	stage, err := reconcile.ParseStage(body.Stage)
	if err != nil {
		badRequest(w, req, err.Error())
		return
	}

	report, err := r.orch.Transition(req.Context(), s, stage)
	if err != nil {
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.stage")
	respondJSON(w, http.StatusOK, report)
}

func (r *Router) report(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, r.orch.Report(s))
}

// pair forces an unpriced item onto a receipt line picked by the user
func (r *Router) pair(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	var body pairRequest
	if !r.decode(w, req, &body) {
		return
	}

	suggestion, err := r.orch.ForcePair(s, body.Barcode, *body.LineIndex)
	if err != nil {
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.updated")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"suggestion": suggestion,
		"report":     r.orch.Report(s),
	})
}

func (r *Router) unpair(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	var body barcodeRequest
	if !r.decode(w, req, &body) {
		return
	}
	if err := r.orch.Unpair(s, body.Barcode); err != nil {
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.updated")
	respondJSON(w, http.StatusOK, r.orch.Report(s))
}

// remember stores the item's matched receipt text as an alias
func (r *Router) remember(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	var body barcodeRequest
	if !r.decode(w, req, &body) {
		return
	}
	a, err := r.orch.Remember(req.Context(), s, body.Barcode)
	if err != nil {
		respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (r *Router) submit(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	id, err := r.orch.Submit(req.Context(), s)
	if err != nil {
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.submitted")
	respondJSON(w, http.StatusOK, submitResponse{PurchaseID: id, Report: r.orch.Report(s)})
}

func (r *Router) slipPDF(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	v := s.Snapshot()
	variance := reconcile.CheckVariance(v.DeclaredTotal, v.Items, r.orch.Threshold())

	pdf, err := printer.GenerateSlipPDF(r.slip, v, variance)
	if err != nil {
		respondError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=receiving-"+v.ID+".pdf")
	w.Write(pdf)
}
