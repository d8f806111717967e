package prompt

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func plainConfig() config.PromptConfig {
	return config.PromptConfig{Prefix: "🤖: "}
}

func newTestPrompter(input string, cfg config.PromptConfig, opts ...Option) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out, cfg, zap.NewNop(), opts...), &out
}

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		in      string
		wantYes bool
		wantOK  bool
	}{
		{"yes", true, true},
		{"Y", true, true},
		{"no", false, true},
		{"N", false, true},
		{"  YES ", true, true},
		{"maybe", false, false},
		{"", false, false},
		{"yep", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			yes, ok := ParseYesNo(tt.in)
			assert.Equal(t, tt.wantYes, yes)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns trimmed answer", func(t *testing.T) {
		p, out := newTestPrompter("  Jane Doe  \n", plainConfig())
		got, err := p.Ask(ctx, "What is your name?", "")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", got)
		assert.Equal(t, "🤖: What is your name?\n> ", out.String())
	})

	t.Run("empty answer takes the default", func(t *testing.T) {
		p, out := newTestPrompter("\n", plainConfig())
		got, err := p.Ask(ctx, "Postal code?", "K1A0B1")
		require.NoError(t, err)
		assert.Equal(t, "K1A0B1", got)
		assert.Contains(t, out.String(), "> [K1A0B1] ")
	})

	t.Run("typed answer wins over the default", func(t *testing.T) {
		p, _ := newTestPrompter("M5V3L9\n", plainConfig())
		got, err := p.Ask(ctx, "Postal code?", "K1A0B1")
		require.NoError(t, err)
		assert.Equal(t, "M5V3L9", got)
	})

	t.Run("last line without newline", func(t *testing.T) {
		p, _ := newTestPrompter("Phil", plainConfig())
		got, err := p.Ask(ctx, "", "")
		require.NoError(t, err)
		assert.Equal(t, "Phil", got)
	})

	t.Run("eof is reported", func(t *testing.T) {
		p, _ := newTestPrompter("", plainConfig())
		_, err := p.Ask(ctx, "Anyone there?", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	for _, tt := range []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"Y\n", true},
		{"no\n", false},
		{"N\n", false},
	} {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			p, out := newTestPrompter(tt.input, plainConfig())
			got, err := p.Confirm(ctx, "Is that okay with you?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, strings.Count(out.String(), "Is that okay with you?"))
		})
	}

	t.Run("unrecognised answer re-asks once", func(t *testing.T) {
		p, out := newTestPrompter("maybe\nyes\n", plainConfig())
		got, err := p.Confirm(ctx, "Is that okay with you?")
		require.NoError(t, err)
		assert.True(t, got)
		assert.Equal(t, 2, strings.Count(out.String(), "Is that okay with you?"))
	})

	t.Run("bounded attempts are exhausted", func(t *testing.T) {
		cfg := plainConfig()
		cfg.MaxAttempts = 3
		p, out := newTestPrompter(strings.Repeat("maybe\n", 10), cfg)
		_, err := p.Confirm(ctx, "Close the browser?")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAttemptsExhausted)
		assert.Equal(t, 3, strings.Count(out.String(), "Close the browser?"))
	})

	t.Run("eof stops the loop", func(t *testing.T) {
		p, _ := newTestPrompter("maybe\n", plainConfig())
		_, err := p.Confirm(ctx, "Continue?")
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestSay_TypeEffect(t *testing.T) {
	cfg := plainConfig()
	cfg.TypeEffect = true
	cfg.MinDelay = 15 * time.Millisecond
	cfg.MaxDelay = 40 * time.Millisecond

	var delays []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	p, out := newTestPrompter("", cfg, WithSleep(sleep), WithRand(rand.New(rand.NewSource(1))))

	require.NoError(t, p.Say(context.Background(), "Héllo"))
	assert.Equal(t, "🤖: Héllo\n", out.String())
	require.Len(t, delays, 5, "one pause per rune")
	for _, d := range delays {
		assert.GreaterOrEqual(t, d, cfg.MinDelay)
		assert.LessOrEqual(t, d, cfg.MaxDelay)
	}
}

func TestSay_Cancelled(t *testing.T) {
	cfg := plainConfig()
	cfg.TypeEffect = true
	cfg.MinDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	p, _ := newTestPrompter("", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Say(ctx, "never finished")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadLine_CancelKeepsPendingLine(t *testing.T) {
	pr, pw := io.Pipe()
	var out bytes.Buffer
	p := New(pr, &out, plainConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Ask(ctx, "", "")
		done <- err
	}()
	// Let the reader goroutine block on the pipe before cancelling.
	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	go func() {
		_, _ = pw.Write([]byte("late answer\n"))
		_ = pw.Close()
	}()
	got, err := p.Ask(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "late answer", got)
}

func TestCue(t *testing.T) {
	assert.Equal(t, "> ", Cue(""))
	assert.Equal(t, "> [Jane Doe] ", Cue("Jane Doe"))
}
