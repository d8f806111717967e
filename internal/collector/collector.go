// Package collector gathers one logical answer at a time from the human and
// turns it into a structured record, asking again until every required
// field is present.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/extraction"
)

// ErrRoundsExhausted is returned when a bounded collector gives up.
var ErrRoundsExhausted = errors.New("no acceptable answer within the round limit")

// Conversation is the part of the terminal prompter the collector needs.
type Conversation interface {
	Ask(ctx context.Context, question, def string) (string, error)
	Say(ctx context.Context, text string) error
}

// PersonName is an accepted full name. First and Last are never empty.
type PersonName struct {
	First  string
	Middle string
	Last   string
}

// BirthDate is an accepted date of birth. Month is the full month name.
type BirthDate struct {
	Day   string
	Month string
	Year  string
}

// StreetAddress is an accepted street address. StreetNumber is never empty.
type StreetAddress struct {
	StreetNumber string
	UnitNumber   string
}

// Options tune a Collector.
type Options struct {
	// MaxRounds bounds each collection. Zero means unbounded.
	MaxRounds int
}

// Collector runs the guided question rounds.
type Collector struct {
	conv    Conversation
	ex      extraction.Extractor
	answers *config.Answers
	logger  *zap.Logger
	opts    Options
}

// New creates a Collector. answers may be nil.
func New(conv Conversation, ex extraction.Extractor, answers *config.Answers, logger *zap.Logger, opts Options) *Collector {
	return &Collector{
		conv:    conv,
		ex:      ex,
		answers: answers,
		logger:  logger.Named("collector"),
		opts:    opts,
	}
}

// round describes one guided question.
type round struct {
	question    string
	askOnce     bool
	defaultKeys []string
	instruction extraction.Instruction
	required    []string
	minWords    int
	wordsHint   string
	missingHint string
}

var (
	nameRound = round{
		question:    "What’s your full name?",
		defaultKeys: []string{config.AnswerFullName, config.AnswerName},
		instruction: extraction.NameInstruction,
		required:    []string{extraction.FieldFirstName, extraction.FieldLastName},
		minWords:    2,
		wordsHint:   "Please make sure you enter a first and last name (eg, Gabrielle Roy)",
		missingHint: "Please make sure you enter a first and last name (eg, Gabrielle Roy)",
	}
	dateRound = round{
		question:    "Your date of birth?",
		defaultKeys: []string{config.AnswerBirthday},
		instruction: extraction.DateInstruction,
		required:    []string{extraction.FieldDay, extraction.FieldMonth, extraction.FieldYear},
		missingHint: "Please enter a valid date including day, month, and year (eg, Jan 1 1980)",
	}
	addressRound = round{
		question:    "Your street (and unit number, if applicable)?",
		askOnce:     true,
		defaultKeys: []string{config.AnswerAddress},
		instruction: extraction.AddressInstruction,
		required:    []string{extraction.FieldStreetNumber},
		minWords:    2,
		wordsHint:   "Please enter your street name and number (eg, 123 Front Street, Apt 3).",
		missingHint: "Sorry, I didn’t get that. Could you try again? (eg, 123 Front Street, Apt 3)",
	}
)

// CollectName asks for a full name until first and last name are known.
func (c *Collector) CollectName(ctx context.Context) (PersonName, error) {
	f, err := c.collect(ctx, nameRound)
	if err != nil {
		return PersonName{}, err
	}
	return PersonName{
		First:  f[extraction.FieldFirstName],
		Middle: f[extraction.FieldMiddleName],
		Last:   f[extraction.FieldLastName],
	}, nil
}

// CollectBirthDate asks for a date of birth until day, month and year are known.
func (c *Collector) CollectBirthDate(ctx context.Context) (BirthDate, error) {
	f, err := c.collect(ctx, dateRound)
	if err != nil {
		return BirthDate{}, err
	}
	return BirthDate{
		Day:   f[extraction.FieldDay],
		Month: f[extraction.FieldMonth],
		Year:  f[extraction.FieldYear],
	}, nil
}

// CollectStreetAddress asks for a street address until the street number is known.
func (c *Collector) CollectStreetAddress(ctx context.Context) (StreetAddress, error) {
	f, err := c.collect(ctx, addressRound)
	if err != nil {
		return StreetAddress{}, err
	}
	return StreetAddress{
		StreetNumber: f[extraction.FieldStreetNumber],
		UnitNumber:   f[extraction.FieldUnitNumber],
	}, nil
}

// collect runs full rounds of prompt, local check, extraction and required
// field check. Any rejection emits a hint and starts a new round.
func (c *Collector) collect(ctx context.Context, r round) (extraction.Fields, error) {
	def := c.answers.First(r.defaultKeys...)
	question := r.question
	if r.askOnce {
		if err := c.conv.Say(ctx, r.question); err != nil {
			return nil, err
		}
		question = ""
	}

	for n := 1; ; n++ {
		text, err := c.conv.Ask(ctx, question, def)
		if err != nil {
			return nil, err
		}

		fields, hint, err := c.attempt(ctx, r, text)
		if err != nil {
			return nil, err
		}
		if hint == "" {
			return fields, nil
		}

		if err := c.conv.Say(ctx, hint); err != nil {
			return nil, err
		}
		if c.opts.MaxRounds > 0 && n >= c.opts.MaxRounds {
			return nil, fmt.Errorf("%s: %w", r.instruction.Name, ErrRoundsExhausted)
		}
	}
}

// attempt evaluates one answer. A non-empty hint means the round was rejected;
// err is only set when the collection cannot continue.
func (c *Collector) attempt(ctx context.Context, r round, text string) (extraction.Fields, string, error) {
	if r.minWords > 0 && len(strings.Fields(text)) < r.minWords {
		return nil, r.wordsHint, nil
	}

	fields, err := c.ex.Extract(ctx, r.instruction, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		c.logger.Warn("Extraction failed, asking again",
			zap.String("instruction", r.instruction.Name),
			zap.Error(err),
		)
		return nil, r.missingHint, nil
	}

	if missing := fields.Missing(r.required...); len(missing) > 0 {
		c.logger.Debug("Extraction missing required fields",
			zap.String("instruction", r.instruction.Name),
			zap.Strings("missing", missing),
		)
		return nil, r.missingHint, nil
	}
	return fields, "", nil
}
