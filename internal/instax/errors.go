package instax

import "errors"

var (
	// ErrUnknownModel means the model has no profile entry.
	ErrUnknownModel = errors.New("instax: unknown printer model")

	// ErrEmptyImage means a print was requested with no image bytes.
	ErrEmptyImage = errors.New("instax: empty image")

	// ErrOversizeChunk means a data chunk did not fit the printer's
	// command size limit.
	ErrOversizeChunk = errors.New("instax: chunk exceeds command size limit")

	// ErrAborted means the caller cancelled the print mid-transfer.
	ErrAborted = errors.New("instax: print aborted")

	// ErrPrintInProgress means a print was requested while another job
	// was still running on the same Printer.
	ErrPrintInProgress = errors.New("instax: print already in progress")
)
