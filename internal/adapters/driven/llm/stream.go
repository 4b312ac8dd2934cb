// Package llm holds helpers shared by the LLM adapters.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docchat/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Stream runs produce in its own goroutine and forwards every emitted
// delta. Both returned channels are closed when produce returns; its
// error, if any, is sent first.
func Stream(ctx context.Context, produce func(emit func(string) error) error) (<-chan string, <-chan error) {
	out := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		err := produce(func(delta string) error {
			return httpclient.Send(ctx, out, delta)
		})
		if err != nil {
			errs <- err
		}
	}()

	return out, errs
}

// Finish turns what a stream reader returned into the adapter result.
// stop is the sentinel the event handler returns at the provider's
// terminal marker. A body that ends before that marker was cut off, so it
// fails with io.ErrUnexpectedEOF rather than passing as a complete answer.
func Finish(provider string, err, stop error) error {
	switch {
	case errors.Is(err, stop):
		return nil
	case err != nil:
		return err
	default:
		return fmt.Errorf("%s: stream ended before completion: %w", provider, io.ErrUnexpectedEOF)
	}
}

// Collect drains a stream into a single string.
func Collect(chunks <-chan string, errs <-chan error) (string, error) {
	var b strings.Builder
	for c := range chunks {
		b.WriteString(c)
	}
	if err := <-errs; err != nil {
		return b.String(), err
	}
	return b.String(), nil
}

// SplitSystem separates system messages from the conversation turns for
// APIs that take the system prompt out of band.
func SplitSystem(messages []driven.ChatMessage) (string, []driven.ChatMessage) {
	var (
		system []string
		turns  []driven.ChatMessage
	)
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(system, "\n"), turns
}
