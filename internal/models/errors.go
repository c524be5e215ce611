package models

import "errors"

// Custom errors
var (
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrInvalidPrice        = errors.New("price outside American-odds domain")
	ErrMalformedQuote      = errors.New("malformed quote record")
	ErrAmbiguousEventMatch = errors.New("ambiguous event match")
	ErrScanTimeout         = errors.New("scan cycle exceeded time budget")
	ErrNotFound            = errors.New("record not found")
)
