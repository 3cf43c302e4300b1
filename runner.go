package parley

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Runner drives an Engine from line-based input.
// Each line is one request: the first word names the intent, the remaining words become its
// arguments. This allows for easy testing and for trying a dialog without a voice platform.
type Runner struct {
	Input     io.Reader
	Output    io.Writer
	SessionID string
	Headless  bool
	Renderer  ContentRenderer
}

// ContentRenderer transforms a reply message before it is written.
// This allows for stripping markup without coupling the core package to a platform.
type ContentRenderer func(domain.Message) string

// NewRunner creates a Runner bound to in and out.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{Input: in, Output: out}
}

// Run reads requests until EOF, "exit" or "quit", or until a reply ends the session.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)
	if r.SessionID == "" {
		r.SessionID = engine.NewSessionID()
	}

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- Parley (session %s) ---\n", r.SessionID)
	}

	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		fields := strings.Fields(text)
		if len(fields) == 0 {
			if eof {
				return nil
			}
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		}

		args := make([]any, 0, len(fields)-1)
		for _, f := range fields[1:] {
			args = append(args, f)
		}

		resp, err := engine.Handle(ctx, Request{SessionID: r.SessionID, Intent: fields[0], Args: args})
		if err != nil {
			if errors.Is(err, domain.ErrIntentNotFound) {
				fmt.Fprintf(r.Output, "unknown intent %q\n", fields[0])
				continue
			}
			return fmt.Errorf("request error: %w", err)
		}

		for _, msg := range resp.Replies {
			output := msg.Text
			if r.Renderer != nil {
				output = r.Renderer(msg)
			}
			fmt.Fprintln(r.Output, strings.TrimSpace(output))
		}
		if resp.EndSession || eof {
			return nil
		}
	}
}
