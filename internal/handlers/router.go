// Package handlers exposes the receiving workflow over HTTP.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xelth-com/eckreceive/internal/alias"
	"github.com/xelth-com/eckreceive/internal/buildinfo"
	"github.com/xelth-com/eckreceive/internal/catalog"
	"github.com/xelth-com/eckreceive/internal/middleware"
	"github.com/xelth-com/eckreceive/internal/printer"
	"github.com/xelth-com/eckreceive/internal/receipt"
	"github.com/xelth-com/eckreceive/internal/reconcile"
	"github.com/xelth-com/eckreceive/internal/storage"
	"github.com/xelth-com/eckreceive/internal/websocket"
)

// Deps are the services the router dispatches to. Recognizer, Uploader and Hub
// may be nil.
type Deps struct {
	Sessions     *reconcile.Registry
	Orchestrator *reconcile.Orchestrator
	Resolver     *catalog.Resolver
	Aliases      alias.Repository
	Recognizer   receipt.Recognizer
	Uploader     storage.Uploader
	Hub          *websocket.Hub
	Slip         printer.SlipConfig
	JWTSecret    string
	OCRTimeout   time.Duration
	Log          *zap.SugaredLogger
}

// Router wraps the mux router and the receiving services
type Router struct {
	*mux.Router
	sessions   *reconcile.Registry
	orch       *reconcile.Orchestrator
	resolver   *catalog.Resolver
	aliases    *alias.Store
	recognizer receipt.Recognizer
	uploader   storage.Uploader
	hub        *websocket.Hub
	slip       printer.SlipConfig
	ocrTimeout time.Duration
	validate   *validator.Validate
	log        *zap.SugaredLogger
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	r := &Router{
		Router:     mux.NewRouter(),
		sessions:   d.Sessions,
		orch:       d.Orchestrator,
		resolver:   d.Resolver,
		aliases:    alias.NewStore(d.Aliases),
		recognizer: d.Recognizer,
		uploader:   d.Uploader,
		hub:        d.Hub,
		slip:       d.Slip,
		ocrTimeout: d.OCRTimeout,
		validate:   validator.New(),
		log:        d.Log,
	}
	if r.ocrTimeout == 0 {
		r.ocrTimeout = 60 * time.Second
	}
	r.Use(middleware.Logger(d.Log))

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	if r.hub != nil {
		r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWs(r.hub, w, req)
		}).Methods("GET")
	}

	api := r.PathPrefix("/api/receiving").Subrouter()
	api.Use(middleware.Auth(d.JWTSecret, d.Log))

	api.HandleFunc("/products/{barcode}", r.resolveProduct).Methods("GET")

	sessions := api.PathPrefix("/sessions").Subrouter()
	sessions.HandleFunc("", r.createSession).Methods("POST")
	sessions.HandleFunc("/{id}", r.getSession).Methods("GET")
	sessions.HandleFunc("/{id}", r.discardSession).Methods("DELETE")
	sessions.HandleFunc("/{id}/scan", r.scan).Methods("POST")
	sessions.HandleFunc("/{id}/items/{barcode}/quantity", r.setQuantity).Methods("PUT")
	sessions.HandleFunc("/{id}/items/{barcode}/cost", r.setCost).Methods("PUT")
	sessions.HandleFunc("/{id}/items/{barcode}/product", r.createProduct).Methods("POST")
	sessions.HandleFunc("/{id}/items/{barcode}", r.removeItem).Methods("DELETE")
	sessions.HandleFunc("/{id}/details", r.setDetails).Methods("PUT")
	sessions.HandleFunc("/{id}/receipt", r.uploadReceipt).Methods("POST")
	sessions.HandleFunc("/{id}/receipt/text", r.receiptText).Methods("POST")
	sessions.HandleFunc("/{id}/stage", r.transition).Methods("POST")
	sessions.HandleFunc("/{id}/report", r.report).Methods("GET")
	sessions.HandleFunc("/{id}/pair", r.pair).Methods("POST")
	sessions.HandleFunc("/{id}/unpair", r.unpair).Methods("POST")
	sessions.HandleFunc("/{id}/remember", r.remember).Methods("POST")
	sessions.HandleFunc("/{id}/submit", r.submit).Methods("POST")
	sessions.HandleFunc("/{id}/slip.pdf", r.slipPDF).Methods("GET")

	api.HandleFunc("/aliases", r.listAliases).Methods("GET")
	api.HandleFunc("/aliases/{aliasId:[0-9]+}", r.deleteAlias).Methods("DELETE")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": r.sessions.Len(),
		"build":    buildinfo.Summary(),
	})
}

// session loads the session named in the path and publishes nothing
func (r *Router) session(w http.ResponseWriter, req *http.Request) (*reconcile.Session, bool) {
	s, err := r.sessions.Get(mux.Vars(req)["id"])
	if err != nil {
		respondError(w, req, err)
		return nil, false
	}
	return s, true
}

// publish pushes the session snapshot to its websocket followers
func (r *Router) publish(s *reconcile.Session, event string) {
	if r.hub == nil {
		return
	}
	r.hub.Publish(s.ID, event, s.Snapshot())
}
