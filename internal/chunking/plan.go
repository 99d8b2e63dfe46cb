package chunking

import (
	"errors"
	"fmt"
)

var ErrInvalidPlan = errors.New("invalid chunking plan")

// DefaultSeparators are tried in order when a section is too long.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Plan describes how flattened Markdown is cut into chunks. Sizes are in
// characters (runes).
type Plan struct {
	ChunkSize    int
	ChunkOverlap int
	// HeaderLevels is the deepest Markdown heading level that starts a new
	// section. Zero means 3.
	HeaderLevels int
	Separators   []string
}

func (p Plan) Validate() error {
	if p.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be > 0", ErrInvalidPlan)
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		return fmt.Errorf("%w: overlap must be >= 0 and < chunk size", ErrInvalidPlan)
	}
	if p.HeaderLevels < 0 || p.HeaderLevels > 6 {
		return fmt.Errorf("%w: header levels must be between 0 and 6", ErrInvalidPlan)
	}
	return nil
}

func (p Plan) headerLevels() int {
	if p.HeaderLevels == 0 {
		return 3
	}
	return p.HeaderLevels
}

func (p Plan) separators() []string {
	if len(p.Separators) == 0 {
		return DefaultSeparators
	}
	seps := p.Separators
	if seps[len(seps)-1] != "" {
		seps = append(append([]string{}, seps...), "")
	}
	return seps
}

// Chunk is one piece of text ready to embed, tagged with its heading path
// ("Header 1", "Header 2", ...).
type Chunk struct {
	Text     string
	Metadata map[string]string
	Index    int
}
