// Package pdf extracts per-page text from PDF files using the pdftotext
// tool from poppler.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// ErrNotPDF indicates the content does not start with a PDF header.
var ErrNotPDF = errors.New("content is not a PDF")

// toolName is the poppler binary used for extraction.
const toolName = "pdftotext"

// pageBreak separates pages in pdftotext output.
const pageBreak = "\f"

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Extractor turns PDF bytes into page text.
type Extractor struct {
	runner CommandRunner
	layout bool
}

// Option configures the extractor.
type Option func(*Extractor)

// WithLayout keeps the physical layout of the text, which helps tables.
func WithLayout() Option {
	return func(e *Extractor) {
		e.layout = true
	}
}

// New creates an extractor that runs pdftotext.
func New(opts ...Option) *Extractor {
	return NewWithRunner(execRunner{}, opts...)
}

// NewWithRunner creates an extractor with a custom command runner.
func NewWithRunner(runner CommandRunner, opts ...Option) *Extractor {
	e := &Extractor{runner: runner}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install pdftotext.
func InstallInstructions() string {
	return `pdftotext is required to read PDF files.

Install poppler:
  macOS:   brew install poppler
  Ubuntu:  sudo apt install poppler-utils
  Fedora:  sudo dnf install poppler-utils`
}

// Extract writes content to a temporary file and converts it. Pages are
// numbered from 1; blank pages keep their number with empty text.
func (e *Extractor) Extract(ctx context.Context, content []byte) ([]domain.Page, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(content, "\x00\t\r\n "), []byte("%PDF-")) {
		return nil, ErrNotPDF
	}

	tmp, err := os.CreateTemp("", "docchat-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing temporary file: %w", err)
	}

	args := []string{"-enc", "UTF-8"}
	if e.layout {
		args = append(args, "-layout")
	}
	args = append(args, tmp.Name(), "-")

	out, err := e.runner.Run(ctx, toolName, args...)
	if errors.Is(err, exec.ErrNotFound) {
		return nil, ErrPDFToolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	return SplitPages(string(out)), nil
}

// SplitPages splits pdftotext output on form feeds. The break pdftotext
// writes after the last page does not start a new page.
func SplitPages(text string) []domain.Page {
	text = strings.TrimSuffix(text, pageBreak)
	if text == "" {
		return nil
	}

	parts := strings.Split(text, pageBreak)
	pages := make([]domain.Page, len(parts))
	for i, part := range parts {
		pages[i] = domain.Page{Number: i + 1, Text: part}
	}
	return pages
}
