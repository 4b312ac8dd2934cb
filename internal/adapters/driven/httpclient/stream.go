package httpclient

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
)

// maxLineSize bounds a single streamed line.
const maxLineSize = 1 << 20

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

// ReadSSE calls fn for every event in a text/event-stream body. Multi-line
// data fields are joined with "\n". Returning an error from fn stops reading.
func ReadSSE(r io.Reader, fn func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		ev   Event
		data []string
	)
	flush := func() error {
		if len(data) == 0 {
			ev = Event{}
			return nil
		}
		ev.Data = strings.Join(data, "\n")
		err := fn(ev)
		ev, data = Event{}, data[:0]
		return err
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return flush()
}

// ReadLines calls fn for every non-blank line of a newline-delimited body.
func ReadLines(r io.Reader, fn func([]byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Send delivers delta on out unless ctx is done first.
func Send(ctx context.Context, out chan<- string, delta string) error {
	if delta == "" {
		return nil
	}
	select {
	case out <- delta:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
