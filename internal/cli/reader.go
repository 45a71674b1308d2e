package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when a read is abandoned because ctx ended.
var ErrInputCancelled = errors.New("input canceled")

// Reader reads lines from a terminal without blocking past context cancellation.
type Reader struct {
	reader *bufio.Reader
	out    io.Writer
	mu     sync.Mutex
}

// NewReader reads from in and writes prompts to out.
func NewReader(in io.Reader, out io.Writer) *Reader {
	return &Reader{reader: bufio.NewReader(in), out: out}
}

// ReadLine reads one trimmed line. A read abandoned on cancellation keeps
// running in the background until the line arrives.
func (r *Reader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrInputCancelled
	}

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		value, err := r.reader.ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil && !(errors.Is(res.err, io.EOF) && res.value != "") {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// Ask prints question and returns the answer, re-asking until it is non-empty.
func (r *Reader) Ask(ctx context.Context, question string) (string, error) {
	for {
		if _, err := fmt.Fprint(r.out, FormatPrompt(question)); err != nil {
			return "", err
		}
		answer, err := r.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
	}
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (r *Reader) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprint(r.out, FormatPrompt(question+" [y/N]")); err != nil {
		return false, err
	}
	answer, err := r.ReadLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
