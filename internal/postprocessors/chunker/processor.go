// Package chunker cuts page text into fixed-size windows that overlap.
package chunker

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

var _ driven.Chunker = (*Processor)(nil)

// Window geometry used when configuration leaves it unset, in runes.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Window is the size of each chunk and how much of it repeats the end of
// the previous one. Both are counted in runes so multi-byte text is never
// cut inside a character.
type Window struct {
	Size    int
	Overlap int
}

// Validate requires a positive size and an overlap in [0, Size).
func (w Window) Validate() error {
	if w.Size <= 0 {
		return fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidInput, w.Size)
	}
	if w.Overlap < 0 || w.Overlap >= w.Size {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidInput, w.Overlap, w.Size)
	}
	return nil
}

// Processor is the sliding window chunker.
type Processor struct {
	w Window
}

// New returns a chunker for w.
func New(w Window) (*Processor, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Processor{w: w}, nil
}

// Default returns a chunker with DefaultChunkSize and DefaultChunkOverlap.
func Default() *Processor {
	return &Processor{w: Window{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}}
}

func (p *Processor) Name() string { return "chunker" }

// Window reports the configured geometry.
func (p *Processor) Window() Window { return p.w }

// Normalize replaces every run of whitespace, newlines included, with one
// space and trims both ends. Offsets are taken on this form.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Chunk yields the windows of one page. A new window starts every
// Size-Overlap runes while the start is inside the text, so the tail may be
// shorter than Size. A blank page yields nothing.
func (p *Processor) Chunk(pageText string, pageNumber int) iter.Seq[domain.Chunk] {
	stride := p.w.Size - p.w.Overlap
	return func(yield func(domain.Chunk) bool) {
		text := []rune(Normalize(pageText))
		for i, off := 0, 0; off < len(text); i, off = i+1, off+stride {
			body := string(text[off:min(off+p.w.Size, len(text))])
			c := domain.Chunk{
				ID:         domain.ContentHash(body),
				PageNumber: pageNumber,
				Index:      i,
				Text:       body,
			}
			if !yield(c) {
				return
			}
		}
	}
}

// ChunkPage rejects pages numbered below 1 and text that is not UTF-8, then
// collects Chunk.
func (p *Processor) ChunkPage(page domain.Page) ([]domain.Chunk, error) {
	var reason string
	switch {
	case page.Number < 1:
		reason = "page number must be positive"
	case !utf8.ValidString(page.Text):
		reason = "text is not valid UTF-8"
	default:
		return slices.Collect(p.Chunk(page.Text, page.Number)), nil
	}
	return nil, &domain.ChunkingError{
		Page: page.Number,
		Err:  fmt.Errorf("%w: %s", domain.ErrInvalidInput, reason),
	}
}

// Reconstruct joins one page's chunks back into its normalised text by
// cutting the first overlap runes off every chunk but the first.
func Reconstruct(chunks []domain.Chunk, overlap int) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		r := []rune(c.Text)
		if i > 0 {
			r = r[min(overlap, len(r)):]
		}
		parts[i] = string(r)
	}
	return strings.Join(parts, "")
}
