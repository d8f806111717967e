package collector

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

var postalCodeRegex = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z]\d[A-Za-z]\d$`)

const postalHint = "Oops, invalid postal code format. Please enter a valid postal code (eg, A1A 1A1)."

// NormalizePostalCode removes all whitespace from s and reports whether the
// rest is a letter-digit-letter-digit-letter-digit code. The accepted code
// is returned in upper case.
func NormalizePostalCode(s string) (string, bool) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if !postalCodeRegex.MatchString(compact) {
		return "", false
	}
	return strings.ToUpper(compact), true
}

// CollectPostalCode asks for a postal code until it is well formed. The
// check is local; no extraction call is made.
func (c *Collector) CollectPostalCode(ctx context.Context) (string, error) {
	def := c.answers.Get(config.AnswerPostalCode)
	for n := 1; ; n++ {
		text, err := c.conv.Ask(ctx, "Your postal code?", def)
		if err != nil {
			return "", err
		}
		if code, ok := NormalizePostalCode(text); ok {
			return code, nil
		}
		c.logger.Debug("Rejected postal code", zap.String("input", text))
		if err := c.conv.Say(ctx, postalHint); err != nil {
			return "", err
		}
		if c.opts.MaxRounds > 0 && n >= c.opts.MaxRounds {
			return "", fmt.Errorf("postal code: %w", ErrRoundsExhausted)
		}
	}
}
