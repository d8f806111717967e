// internal/prompt/prompter.go
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

// ErrAttemptsExhausted is returned by Confirm when a bounded prompter runs out
// of attempts without a recognisable answer.
var ErrAttemptsExhausted = errors.New("no valid answer within the attempt limit")

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type lineResult struct {
	line string
	err  error
}

// Prompter runs the line-oriented conversation with the human. It owns the
// input stream; a read abandoned by a cancelled context is picked up by the
// next read, so no typed line is lost.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	cfg    config.PromptConfig
	logger *zap.Logger

	prefix  string
	rng     *rand.Rand
	sleep   SleepFunc
	pending chan lineResult
}

// Option customises a Prompter.
type Option func(*Prompter)

// WithRand sets the random source for the typing effect.
func WithRand(rng *rand.Rand) Option {
	return func(p *Prompter) { p.rng = rng }
}

// WithSleep replaces the pause used between typed runes.
func WithSleep(fn SleepFunc) Option {
	return func(p *Prompter) { p.sleep = fn }
}

// New creates a Prompter reading answers from in and writing the conversation to out.
func New(in io.Reader, out io.Writer, cfg config.PromptConfig, logger *zap.Logger, opts ...Option) *Prompter {
	p := &Prompter{
		in:     bufio.NewReader(in),
		out:    out,
		cfg:    cfg,
		logger: logger.Named("prompt"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.prefix = renderPrefix(cfg.Prefix, cfg.Color)
	return p
}

// MaxAttempts reports the configured bound on re-ask loops. Zero means unbounded.
func (p *Prompter) MaxAttempts() int {
	return p.cfg.MaxAttempts
}

// Writer exposes the conversation output, for tables and other block output.
func (p *Prompter) Writer() io.Writer {
	return p.out
}

// Println writes a plain line without the assistant prefix.
func (p *Prompter) Println(text string) {
	fmt.Fprintln(p.out, text)
}

// Say writes an assistant line. With the typing effect enabled each rune is
// followed by a random pause between MinDelay and MaxDelay.
func (p *Prompter) Say(ctx context.Context, text string) error {
	if !p.cfg.TypeEffect {
		fmt.Fprintln(p.out, p.prefix+text)
		return nil
	}

	fmt.Fprint(p.out, p.prefix)
	for _, r := range text {
		fmt.Fprint(p.out, string(r))
		if err := p.sleep(ctx, p.typingDelay()); err != nil {
			fmt.Fprintln(p.out)
			return err
		}
	}
	fmt.Fprintln(p.out)
	return nil
}

// Ask says question and reads one trimmed answer. An empty answer is replaced
// by def when def is non-empty.
func (p *Prompter) Ask(ctx context.Context, question, def string) (string, error) {
	if question != "" {
		if err := p.Say(ctx, question); err != nil {
			return "", err
		}
	}
	answer, err := p.readAnswer(ctx, def)
	if err != nil {
		return "", err
	}
	if answer == "" && def != "" {
		p.logger.Debug("Using default answer", zap.String("question", question))
		return def, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question until the answer is recognised. The question
// is repeated verbatim after an unrecognised answer.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	for attempt := 1; ; attempt++ {
		answer, err := p.Ask(ctx, question, "")
		if err != nil {
			return false, err
		}
		if yes, ok := ParseYesNo(answer); ok {
			return yes, nil
		}
		p.logger.Debug("Unrecognised confirmation answer", zap.String("answer", answer), zap.Int("attempt", attempt))
		if p.cfg.MaxAttempts > 0 && attempt >= p.cfg.MaxAttempts {
			return false, fmt.Errorf("%q: %w", question, ErrAttemptsExhausted)
		}
	}
}

// ParseYesNo maps yes/y to true and no/n to false, ignoring case and
// surrounding space. ok is false for anything else.
func ParseYesNo(answer string) (yes bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true, true
	case "no", "n":
		return false, true
	default:
		return false, false
	}
}

// Cue returns the input marker shown before an answer.
func Cue(def string) string {
	if def != "" {
		return "> [" + def + "] "
	}
	return "> "
}

func (p *Prompter) readAnswer(ctx context.Context, def string) (string, error) {
	fmt.Fprint(p.out, Cue(def))
	return p.readLine(ctx)
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.pending == nil {
		ch := make(chan lineResult, 1)
		p.pending = ch
		go func() {
			line, err := p.in.ReadString('\n')
			if errors.Is(err, io.EOF) && line != "" {
				err = nil
			}
			ch <- lineResult{line: line, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-p.pending:
		p.pending = nil
		if res.err != nil {
			return "", fmt.Errorf("failed to read answer: %w", res.err)
		}
		return strings.TrimSpace(res.line), nil
	}
}

func (p *Prompter) typingDelay() time.Duration {
	lo, hi := p.cfg.MinDelay, p.cfg.MaxDelay
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.rng.Int63n(int64(hi-lo)+1))
}

func renderPrefix(prefix, color string) string {
	if prefix == "" || color == "" {
		return prefix
	}
	body := strings.TrimRight(prefix, " ")
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
	return style.Render(body) + prefix[len(body):]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
