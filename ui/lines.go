package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// RunLines reads one request per line from in until EOF, /exit or ctx is
// done. Used when stdin is not a terminal.
func RunLines(ctx context.Context, s *Session, cfg Config, in io.Reader, out io.Writer, prompt bool) error {
	r := newRenderer(cfg)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if prompt {
			fmt.Fprint(out, promptStyle.Render("> ")) //nolint:errcheck
		}
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		reply, err := s.Execute(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintln(out, r.err(err)) //nolint:errcheck
			continue
		}
		if reply.Output != "" {
			fmt.Fprintln(out, r.reply(reply, 80)) //nolint:errcheck
		}
		if reply.Quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("unable to read input: %w", err)
	}
	return nil
}
