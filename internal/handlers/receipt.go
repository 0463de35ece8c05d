package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/xelth-com/eckreceive/internal/metrics"
	"github.com/xelth-com/eckreceive/internal/receipt"
	"github.com/xelth-com/eckreceive/internal/reconcile"
	"github.com/xelth-com/eckreceive/internal/storage"
)

const maxReceiptUpload = 15 << 20

type receiptTextRequest struct {
	Text string `json:"text" validate:"required"`
}

type receiptResponse struct {
	ImageURL  string             `json:"image_url,omitempty"`
	OCRStatus string             `json:"ocr_status"`
	Receipt   receipt.Extraction `json:"receipt"`
	Session   reconcile.View     `json:"session"`
}

// uploadReceipt stores the photo and runs OCR on it at the same time. Either
// side may fail on its own; a failed OCR leaves the session with no lines.
func (r *Router) uploadReceipt(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, maxReceiptUpload)
	file, header, err := req.FormFile("image")
	if err != nil {
		badRequest(w, req, "multipart field image is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		badRequest(w, req, "could not read receipt image")
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), r.ocrTimeout)
	defer cancel()

	var (
		wg        sync.WaitGroup
		imageURL  string
		ocrText   string
		uploadErr error
		ocrErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if r.uploader == nil {
			uploadErr = storage.ErrNotConfigured
			return
		}
		key := storage.ReceiptKey(s.ID, header.Filename, time.Now())
		imageURL, uploadErr = r.uploader.Upload(ctx, key, header.Header.Get("Content-Type"), data)
	}()
	go func() {
		defer wg.Done()
		if r.recognizer == nil {
			ocrErr = receipt.ErrNoRecognizer
			return
		}
		start := time.Now()
		ocrText, ocrErr = r.recognizer.Recognize(ctx, data)
		metrics.OCRDuration.Observe(time.Since(start).Seconds())
	}()
	wg.Wait()

	if uploadErr != nil {
		metrics.PhaseErrors.WithLabelValues("upload").Inc()
		r.log.Warnw("receipt upload failed", "session", s.ID, "error", uploadErr)
	}

	var ext receipt.Extraction
	status := "ok"
	if ocrErr != nil {
		metrics.PhaseErrors.WithLabelValues("ocr").Inc()
		r.log.Warnw("receipt OCR failed", "session", s.ID, "error", ocrErr)
		status = fmt.Sprintf("OCR failed, enter prices manually: %v", ocrErr)
	} else {
		ext = receipt.Extract(ocrText)
		if len(ext.Lines) == 0 {
			status = "no line items found on the receipt"
		}
	}

	r.applyReceipt(w, req, s, ext, imageURL, status)
}

// receiptText accepts OCR text produced elsewhere, e.g. on the device
func (r *Router) receiptText(w http.ResponseWriter, req *http.Request) {
	s, ok := r.session(w, req)
	if !ok {
		return
	}
	var body receiptTextRequest
	if !r.decode(w, req, &body) {
		return
	}

	ext := receipt.Extract(body.Text)
	status := "ok"
	if len(ext.Lines) == 0 {
		status = "no line items found on the receipt"
	}
	r.applyReceipt(w, req, s, ext, "", status)
}

func (r *Router) applyReceipt(w http.ResponseWriter, req *http.Request, s *reconcile.Session, ext receipt.Extraction, imageURL, status string) {
	if err := s.SetReceipt(ext, imageURL, status); err != nil {
		if errors.Is(err, reconcile.ErrSessionClosed) {
			r.log.Infow("dropping receipt for closed session", "session", s.ID)
		}
		respondError(w, req, err)
		return
	}
	r.publish(s, "session.updated")
	respondJSON(w, http.StatusOK, receiptResponse{
		ImageURL:  imageURL,
		OCRStatus: status,
		Receipt:   ext,
		Session:   s.Snapshot(),
	})
}
