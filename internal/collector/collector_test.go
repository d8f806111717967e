package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/extraction"
	"github.com/xkilldash9x/webpilot-cli/internal/mocks"
	"github.com/xkilldash9x/webpilot-cli/internal/prompt"
)

type scriptedResult struct {
	fields extraction.Fields
	err    error
}

// fakeExtractor replays scripted results and records the texts it was given.
type fakeExtractor struct {
	script []scriptedResult
	texts  []string
}

func (f *fakeExtractor) Extract(_ context.Context, _ extraction.Instruction, text string) (extraction.Fields, error) {
	f.texts = append(f.texts, text)
	if len(f.script) == 0 {
		return nil, fmt.Errorf("unexpected extraction call for %q", text)
	}
	next := f.script[0]
	f.script = f.script[1:]
	return next.fields, next.err
}

func newCollector(input string, ex extraction.Extractor, answers *config.Answers, maxRounds int) (*Collector, *bytes.Buffer) {
	var out bytes.Buffer
	p := prompt.New(strings.NewReader(input), &out, config.PromptConfig{Prefix: "🤖: "}, zap.NewNop())
	return New(p, ex, answers, zap.NewNop(), Options{MaxRounds: maxRounds}), &out
}

func TestCollectName(t *testing.T) {
	ctx := context.Background()

	t.Run("single round with empty defaults", func(t *testing.T) {
		ex := &fakeExtractor{script: []scriptedResult{{
			fields: extraction.Fields{"first_name": "Jane", "middle_name": "Mary", "last_name": "Doe"},
		}}}
		c, out := newCollector("Jane Mary Doe\n", ex, nil, 0)

		got, err := c.CollectName(ctx)
		require.NoError(t, err)
		if diff := cmp.Diff(PersonName{First: "Jane", Middle: "Mary", Last: "Doe"}, got); diff != "" {
			t.Errorf("CollectName() mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, []string{"Jane Mary Doe"}, ex.texts)
		assert.Equal(t, 1, strings.Count(out.String(), "What’s your full name?"))
	})

	t.Run("single word never reaches extraction", func(t *testing.T) {
		ex := &fakeExtractor{script: []scriptedResult{{
			fields: extraction.Fields{"first_name": "Gabrielle", "last_name": "Roy"},
		}}}
		c, out := newCollector("Craig\nGabrielle Roy\n", ex, nil, 0)

		got, err := c.CollectName(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Roy", got.Last)
		assert.Equal(t, []string{"Gabrielle Roy"}, ex.texts)
		assert.Contains(t, out.String(), "first and last name (eg, Gabrielle Roy)")
	})

	t.Run("malformed payload costs a full round", func(t *testing.T) {
		ex := &fakeExtractor{script: []scriptedResult{
			{err: fmt.Errorf("wrapped: %w", extraction.ErrMalformed)},
			{fields: extraction.Fields{"first_name": "Jane", "last_name": "Doe"}},
		}}
		c, out := newCollector("Jane Doe\nJane Doe\n", ex, nil, 0)

		got, err := c.CollectName(ctx)
		require.NoError(t, err)
		assert.Equal(t, PersonName{First: "Jane", Last: "Doe"}, got)
		assert.Len(t, ex.texts, 2)
		assert.Equal(t, 2, strings.Count(out.String(), "What’s your full name?"))
	})

	t.Run("missing last name is never returned", func(t *testing.T) {
		ex := &fakeExtractor{script: []scriptedResult{
			{fields: extraction.Fields{"first_name": "Jane", "last_name": ""}},
			{fields: extraction.Fields{"first_name": "Jane", "last_name": ""}},
		}}
		c, _ := newCollector("Jane X\nJane X\n", ex, nil, 2)

		got, err := c.CollectName(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRoundsExhausted)
		assert.Equal(t, PersonName{}, got)
	})

	t.Run("empty answer uses the defaults file", func(t *testing.T) {
		answers := config.NewAnswers(map[string]string{"fullName": "Paul Martin Craig"})
		ex := &fakeExtractor{script: []scriptedResult{{
			fields: extraction.Fields{"first_name": "Paul", "middle_name": "Martin", "last_name": "Craig"},
		}}}
		c, out := newCollector("\n", ex, answers, 0)

		got, err := c.CollectName(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Martin", got.Middle)
		assert.Equal(t, []string{"Paul Martin Craig"}, ex.texts)
		assert.Contains(t, out.String(), "> [Paul Martin Craig] ")
	})

	t.Run("cancelled extraction stops the loop", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		ex := &cancellingExtractor{cancel: cancel}
		c, _ := newCollector("Jane Doe\nJane Doe\n", ex, nil, 0)

		_, err := c.CollectName(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type cancellingExtractor struct {
	cancel context.CancelFunc
}

func (c *cancellingExtractor) Extract(ctx context.Context, _ extraction.Instruction, _ string) (extraction.Fields, error) {
	c.cancel()
	return nil, ctx.Err()
}

func TestCollectBirthDate(t *testing.T) {
	ex := &fakeExtractor{script: []scriptedResult{
		{fields: extraction.Fields{"day": "", "month": "February", "year": "1990"}},
		{fields: extraction.Fields{"day": "8", "month": "October", "year": "1990"}},
	}}
	c, out := newCollector("Feb 31, 1990\nOctober 8, 1990\n", ex, nil, 0)

	got, err := c.CollectBirthDate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BirthDate{Day: "8", Month: "October", Year: "1990"}, got)
	assert.Contains(t, out.String(), "including day, month, and year")
}

func TestCollectStreetAddress(t *testing.T) {
	ex := &fakeExtractor{script: []scriptedResult{
		{fields: extraction.Fields{"street_number": "", "unit_number": ""}},
		{fields: extraction.Fields{"street_number": "180", "unit_number": "2"}},
	}}
	c, out := newCollector("180\nJenner Court\n2-180 Lisgar St\n", ex, nil, 0)

	got, err := c.CollectStreetAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StreetAddress{StreetNumber: "180", UnitNumber: "2"}, got)
	assert.Equal(t, []string{"Jenner Court", "2-180 Lisgar St"}, ex.texts)

	transcript := out.String()
	assert.Equal(t, 1, strings.Count(transcript, "Your street (and unit number, if applicable)?"), "asked once, then cue only")
	assert.Contains(t, transcript, "Please enter your street name and number")
	assert.Contains(t, transcript, "Sorry, I didn’t get that.")
}

func TestCollect_TransportErrorIsRecovered(t *testing.T) {
	ex := new(mocks.MockExtractor)
	ex.On("Extract", mock.Anything, "address", "2166 Jenner Court").Return(nil, errors.New("503 from upstream")).Once()
	ex.On("Extract", mock.Anything, "address", "2166 Jenner Court").Return(extraction.Fields{"street_number": "2166"}, nil).Once()
	c, _ := newCollector("2166 Jenner Court\n2166 Jenner Court\n", ex, nil, 0)

	got, err := c.CollectStreetAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2166", got.StreetNumber)
	ex.AssertExpectations(t)
}
