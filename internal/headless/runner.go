// Package headless answers a single question from the command line.
package headless

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeanpaul/dontforget/internal/agent"
)

type Options struct {
	// Out receives the answer, Err the tool activity. Default to stdout/stderr.
	Out io.Writer
	Err io.Writer
	// Quiet suppresses tool activity.
	Quiet bool
	// Render formats the answer as terminal markdown.
	Render bool
	Width  int
}

// Run asks agt one question. Tool activity goes to Err and the answer to Out.
func Run(ctx context.Context, agt *agent.Agent, question string, opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}

	if !opts.Quiet {
		agt = agt.WithObserver(func(evt agent.Event) { report(opts.Err, evt) })
	}

	answer, err := agt.Remind(ctx, question)
	if err != nil {
		return fmt.Errorf("remind: %w", err)
	}

	if opts.Render {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(opts.Width),
		)
		if err == nil {
			if out, err := r.Render(answer); err == nil {
				_, err = io.WriteString(opts.Out, out)
				return err
			}
		}
	}
	_, err = fmt.Fprintln(opts.Out, answer)
	return err
}

func report(w io.Writer, evt agent.Event) {
	switch evt.Type {
	case agent.EventToolCall:
		fmt.Fprintf(w, "[Tool Call: %s(%s)]\n", evt.ToolName, evt.ToolArgs)
	case agent.EventToolResult:
		result := strings.ReplaceAll(evt.Result, "\n", " ")
		if len(result) > 200 {
			result = result[:200] + "..."
		}
		if evt.Outcome != "ok" {
			fmt.Fprintf(w, "[Tool %s: %s]\n", evt.Outcome, result)
		} else {
			fmt.Fprintf(w, "[Tool Result: %s]\n", result)
		}
	case agent.EventDone:
		fmt.Fprintf(w, "[Done after %d model turns]\n", evt.Turns)
	}
}
