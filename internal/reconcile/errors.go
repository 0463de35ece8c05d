package reconcile

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrSessionClosed     = errors.New("session is closed")
	ErrSessionNotFound   = errors.New("session not found")
	ErrEmptySession      = errors.New("no scanned items")
	ErrMissingTotal      = errors.New("receipt total is required")
	ErrUnknownItem       = errors.New("no scanned item with that barcode")
	ErrUnknownLine       = errors.New("no receipt line with that index")
	ErrLineTaken         = errors.New("receipt line is already matched")
	ErrIncomplete        = errors.New("every item needs a product and a unit cost")
	ErrWrongStage        = errors.New("action not allowed in the current stage")
	ErrInvalidInput      = errors.New("invalid input")
)
