// Package narrowing drives a search-by-name field toward exactly one match.
package narrowing

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"
)

// ErrNotNarrowed is returned when a bounded search never reaches a single result.
var ErrNotNarrowed = errors.New("search was not narrowed to a single result")

// Searcher returns the display names matching a fragment. Matching semantics
// belong to the implementation.
type Searcher interface {
	Search(ctx context.Context, fragment string) ([]string, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, fragment string) ([]string, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, fragment string) ([]string, error) {
	return f(ctx, fragment)
}

// Conversation is the part of the terminal prompter Narrow needs.
type Conversation interface {
	Ask(ctx context.Context, question, def string) (string, error)
	Say(ctx context.Context, text string) error
	Writer() io.Writer
}

// Resolved is the terminal state: the single match and the fragment that found it.
type Resolved struct {
	Name     string
	Fragment string
}

// Options configure a narrowing run.
type Options struct {
	Question string
	// NarrowHint follows the candidate listing when more than one name matched.
	NarrowHint string
	// MaxRounds bounds the loop. Zero means unbounded.
	MaxRounds int
}

func (o Options) withDefaults() Options {
	if o.Question == "" {
		o.Question = "Enter a name:"
	}
	if o.NarrowHint == "" {
		o.NarrowHint = "Please narrow down your results to one."
	}
	return o
}

// Narrow repeats search rounds until exactly one candidate remains. Zero
// and many results are normal rounds, not errors; searcher errors end the run.
func Narrow(ctx context.Context, conv Conversation, s Searcher, logger *zap.Logger, opts Options) (Resolved, error) {
	opts = opts.withDefaults()
	logger = logger.Named("narrowing")

	for round := 1; ; round++ {
		fragment, err := conv.Ask(ctx, opts.Question, "")
		if err != nil {
			return Resolved{}, err
		}

		candidates, err := s.Search(ctx, fragment)
		if err != nil {
			return Resolved{}, fmt.Errorf("search for '%s' failed: %w", fragment, err)
		}
		logger.Debug("Search round complete",
			zap.Int("round", round),
			zap.String("fragment", fragment),
			zap.Int("candidates", len(candidates)),
		)

		switch len(candidates) {
		case 1:
			if err := conv.Say(ctx, "Found: "+candidates[0]); err != nil {
				return Resolved{}, err
			}
			return Resolved{Name: candidates[0], Fragment: fragment}, nil
		case 0:
			if err := conv.Say(ctx, "No results found. Please try again."); err != nil {
				return Resolved{}, err
			}
		default:
			if err := conv.Say(ctx, "Multiple results found:"); err != nil {
				return Resolved{}, err
			}
			renderCandidates(conv.Writer(), candidates)
			if err := conv.Say(ctx, opts.NarrowHint); err != nil {
				return Resolved{}, err
			}
		}

		if opts.MaxRounds > 0 && round >= opts.MaxRounds {
			return Resolved{}, ErrNotNarrowed
		}
	}
}

func renderCandidates(w io.Writer, candidates []string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Name"})
	for i, name := range candidates {
		t.AppendRow(table.Row{i + 1, name})
	}
	t.Render()
}
