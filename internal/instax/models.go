package instax

import (
	"fmt"
	"strings"
)

// Model identifies an Instax printer product line.
type Model int

const (
	ModelMini Model = iota
	ModelSquare
	ModelWide
)

func (m Model) String() string {
	switch m {
	case ModelMini:
		return "mini"
	case ModelSquare:
		return "square"
	case ModelWide:
		return "wide"
	default:
		return fmt.Sprintf("model(%d)", int(m))
	}
}

// ParseModel parses a model name as used in config and on the CLI.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(s) {
	case "mini":
		return ModelMini, nil
	case "square":
		return ModelSquare, nil
	case "wide":
		return ModelWide, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownModel, s)
	}
}

// Profile holds the per-model transfer parameters.
type Profile struct {
	Width       int // frame width in pixels
	Height      int // frame height in pixels
	ChunkSize   int // image bytes per print data command
	MaxFileSize int // largest JPEG the printer accepts
}

const maxFileSize = 105 * 1024

var profiles = map[Model]Profile{
	ModelMini:   {Width: 600, Height: 800, ChunkSize: 900, MaxFileSize: maxFileSize},
	ModelSquare: {Width: 800, Height: 800, ChunkSize: 1808, MaxFileSize: maxFileSize},
	ModelWide:   {Width: 1260, Height: 840, ChunkSize: 900, MaxFileSize: maxFileSize},
}

// ModelProfile returns the transfer parameters for a model. A model without
// a profile entry is a caller error.
func ModelProfile(m Model) (Profile, error) {
	p, ok := profiles[m]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownModel, m)
	}
	return p, nil
}

// DetectModel maps frame dimensions back to a model.
func DetectModel(width, height int) (Model, error) {
	for m, p := range profiles {
		if p.Width == width && p.Height == height {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %dx%d", ErrUnknownModel, width, height)
}
