// Package voter walks a human through the Ontario voter registration check
// as an explicit state machine over the wizard's pages.
package voter

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/collector"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/prompt"
)

// ErrAborted wraps every page or input failure that stopped the wizard.
var ErrAborted = errors.New("registration check aborted")

const (
	foundHeader    = "We found you on the Register with the information provided."
	notFoundHeader = "We could not find you with the information provided."
	thanksHeader   = "Thank you for confirming your information."

	streetSelect        = "select#selectedStreet"
	firstStreetOption   = "select#selectedStreet option:nth-child(2)"
	citizenshipYes      = `input[aria-label="Yes I am a Canadian citizen"]`
	homeAddressSection  = `section[aria-labelledby="home-address-header"]`
	postalCodeInputPath = "following-sibling::app-postal-code//input"
)

// Conversation is the terminal side of the wizard.
type Conversation interface {
	Ask(ctx context.Context, question, def string) (string, error)
	Say(ctx context.Context, text string) error
	Confirm(ctx context.Context, question string) (bool, error)
}

// Collector gathers the structured answers the form needs.
type Collector interface {
	CollectName(ctx context.Context) (collector.PersonName, error)
	CollectBirthDate(ctx context.Context) (collector.BirthDate, error)
	CollectPostalCode(ctx context.Context) (string, error)
	CollectStreetAddress(ctx context.Context) (collector.StreetAddress, error)
}

// Outcome describes how a run ended.
type Outcome struct {
	// Final is StateDone or StateAborted.
	Final State
	// Path lists every state entered, in order.
	Path []State
	// Registration is set when the register confirmed the elector.
	Registration *Registration
	// KeepOpen is true when the human chose to leave the browser open.
	KeepOpen bool
}

// Wizard drives the registration check.
type Wizard struct {
	page    schemas.Page
	conv    Conversation
	collect Collector
	cfg     config.VoteConfig
	logger  *zap.Logger

	closePrompt bool
	outcome     Outcome
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithClosePrompt turns the closing "close the browser?" question on or off.
// It is on by default; a headless browser has nothing to keep open.
func WithClosePrompt(enabled bool) Option {
	return func(w *Wizard) { w.closePrompt = enabled }
}

// New creates a Wizard.
func New(page schemas.Page, conv Conversation, collect Collector, cfg config.VoteConfig, logger *zap.Logger, opts ...Option) *Wizard {
	w := &Wizard{
		page:        page,
		conv:        conv,
		collect:     collect,
		cfg:         cfg,
		logger:      logger.Named("voter"),
		closePrompt: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type stepFunc func(ctx context.Context) (State, error)

// Run executes the machine from Landing until it reaches Done or Aborted.
// A human declining to continue ends in Aborted with a nil error; any failure
// inside a state ends in Aborted with an error wrapping ErrAborted.
func (w *Wizard) Run(ctx context.Context) (Outcome, error) {
	steps := map[State]stepFunc{
		StateLanding:      w.landing,
		StateDisclaimer:   w.disclaimer,
		StatePersonalInfo: w.personalInfo,
		StateAddressInfo:  w.addressInfo,
		StateFound:        w.found,
		StateNotFound:     w.notFound,
		StateConfirmation: w.confirmation,
	}

	w.outcome = Outcome{}
	state := StateLanding
	for {
		w.outcome.Path = append(w.outcome.Path, state)
		if state.Terminal() {
			w.outcome.Final = state
			return w.outcome, nil
		}

		next, err := steps[state](ctx)
		if err != nil {
			w.outcome.Final = StateAborted
			w.logger.Warn("Wizard aborted", zap.Stringer("state", state), zap.Error(err))
			return w.outcome, fmt.Errorf("%w in %s: %w", ErrAborted, state, err)
		}
		if !CanTransition(state, next) {
			w.outcome.Final = StateAborted
			return w.outcome, fmt.Errorf("%w: illegal transition %s -> %s", ErrAborted, state, next)
		}
		w.logger.Debug("Wizard transition", zap.Stringer("from", state), zap.Stringer("to", next))
		state = next
	}
}

func (w *Wizard) landing(ctx context.Context) (State, error) {
	if w.cfg.Intro {
		if err := w.intro(ctx); err != nil {
			return 0, err
		}
	}
	if err := w.page.Navigate(ctx, w.cfg.URL); err != nil {
		return 0, err
	}
	if err := w.page.ClickText(ctx, "button", "Get started"); err != nil {
		return 0, err
	}
	return StateDisclaimer, nil
}

// intro is the small talk that precedes opening the form.
func (w *Wizard) intro(ctx context.Context) error {
	if err := w.conv.Say(ctx, "Hey there! How can I assist you today? 😊"); err != nil {
		return err
	}
	if _, err := w.conv.Ask(ctx, "", ""); err != nil {
		return err
	}
	if err := w.conv.Say(ctx, "Great! Is there something I can help with?"); err != nil {
		return err
	}
	if _, err := w.conv.Ask(ctx, "", ""); err != nil {
		return err
	}
	for _, line := range []string{
		"Sure, I'll do my best",
		".......",
		"Okay, I've found the voter registration form for Ontario at " + w.cfg.URL,
	} {
		if err := w.conv.Say(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

func (w *Wizard) disclaimer(ctx context.Context) (State, error) {
	if err := w.page.WaitText(ctx, "h2", "before you start"); err != nil {
		return 0, err
	}
	if err := w.conv.Say(ctx, "Let’s check if you are registered to vote!"); err != nil {
		return 0, err
	}
	if err := w.conv.Say(ctx, "You will need to enter your:\n\t- name\n\t- birthday\n\t- current address"); err != nil {
		return 0, err
	}

	agreed, err := w.conv.Confirm(ctx, "Is that okay with you?")
	if err != nil {
		return 0, err
	}
	if !agreed {
		return StateAborted, w.conv.Say(ctx, "User did not agree to continue.")
	}

	if err := w.page.ClickText(ctx, "button", "Next"); err != nil {
		return 0, err
	}
	return StatePersonalInfo, nil
}

func (w *Wizard) personalInfo(ctx context.Context) (State, error) {
	if err := w.page.WaitText(ctx, "h2", "Citizenship"); err != nil {
		return 0, err
	}
	if err := w.page.Click(ctx, citizenshipYes); err != nil {
		return 0, err
	}
	if err := w.page.ClickText(ctx, "label", "Currently living in Ontario"); err != nil {
		return 0, err
	}

	name, err := w.collect.CollectName(ctx)
	if err != nil {
		return 0, err
	}
	fields := []struct{ label, value string }{
		{"First name", name.First},
		{"Middle name", name.Middle},
		{"Last name", name.Last},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := w.page.FillByLabel(ctx, f.label, "", f.value, w.cfg.KeyDelay); err != nil {
			return 0, err
		}
	}

	dob, err := w.collect.CollectBirthDate(ctx)
	if err != nil {
		return 0, err
	}
	if err := w.page.SelectByLabel(ctx, "Month", dob.Month); err != nil {
		return 0, err
	}
	if err := w.page.FillByLabel(ctx, "Day", "", dob.Day, w.cfg.KeyDelay); err != nil {
		return 0, err
	}
	if err := w.page.FillByLabel(ctx, "Year", "", dob.Year, w.cfg.KeyDelay); err != nil {
		return 0, err
	}

	if err := w.page.ClickText(ctx, "button", "Next"); err != nil {
		return 0, err
	}
	return StateAddressInfo, nil
}

func (w *Wizard) addressInfo(ctx context.Context) (State, error) {
	if err := w.page.WaitText(ctx, "h2", "Address information"); err != nil {
		return 0, err
	}

	code, err := w.collect.CollectPostalCode(ctx)
	if err != nil {
		return 0, err
	}
	if err := w.page.FillByLabel(ctx, "Postal code", postalCodeInputPath, code, w.cfg.KeyDelay); err != nil {
		return 0, err
	}

	street, err := w.firstStreet(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		w.logger.Info("No street list for postal code", zap.String("postal_code", code), zap.Error(err))
		return StateNotFound, w.conv.Say(ctx, "I couldn't find any streets for that postal code.")
	}

	confirmed, err := w.conv.Confirm(ctx, fmt.Sprintf("Is %q the street you live on?", street))
	if err != nil {
		return 0, err
	}
	if !confirmed {
		return StateAborted, w.conv.Say(ctx, "Sorry, probably you aren’t registered then.")
	}
	if err := w.page.SelectIndex(ctx, streetSelect, 1); err != nil {
		return 0, err
	}

	addr, err := w.collect.CollectStreetAddress(ctx)
	if err != nil {
		return 0, err
	}
	if err := w.page.FillByLabel(ctx, "Street number", "", addr.StreetNumber, w.cfg.KeyDelay); err != nil {
		return 0, err
	}
	if addr.UnitNumber != "" {
		if err := w.page.FillByLabel(ctx, "Unit number", "", addr.UnitNumber, w.cfg.KeyDelay); err != nil {
			return 0, err
		}
	}
	if err := w.page.ClickText(ctx, "button", "Search"); err != nil {
		return 0, err
	}

	idx, err := w.page.WaitAny(ctx, "h2", foundHeader, notFoundHeader)
	if err != nil {
		return 0, err
	}
	if idx == 0 {
		return StateFound, nil
	}
	return StateNotFound, nil
}

// firstStreet waits for the street list and returns its first real option.
// When several streets share the postal code only the first is offered.
func (w *Wizard) firstStreet(ctx context.Context) (string, error) {
	waitCtx := ctx
	if w.cfg.StreetWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, w.cfg.StreetWait)
		defer cancel()
	}
	if err := w.page.WaitVisible(waitCtx, streetSelect); err != nil {
		return "", err
	}
	return w.page.Text(ctx, firstStreetOption)
}

func (w *Wizard) found(ctx context.Context) (State, error) {
	if err := w.conv.Say(ctx, "Looks like you’re all set!"); err != nil {
		return 0, err
	}
	if err := w.page.ClickText(ctx, "button", "Confirm"); err != nil {
		return 0, err
	}
	return StateConfirmation, nil
}

func (w *Wizard) notFound(ctx context.Context) (State, error) {
	msg := fmt.Sprintf("Sorry, I couldn't find you in the registry.\n\nVisit %s to check on your own.\n\nOr, try again!", w.cfg.URL)
	if err := w.conv.Say(ctx, msg); err != nil {
		return 0, err
	}
	return StateDone, w.askClose(ctx)
}

func (w *Wizard) confirmation(ctx context.Context) (State, error) {
	if err := w.page.WaitText(ctx, "h2", thanksHeader); err != nil {
		return 0, err
	}
	markup, err := w.page.OuterHTML(ctx, homeAddressSection)
	if err != nil {
		return 0, err
	}
	reg, err := ParseRegistration(markup, w.cfg.URL)
	if err != nil {
		return 0, err
	}
	w.outcome.Registration = &reg

	if err := w.conv.Say(ctx, reg.String()); err != nil {
		return 0, err
	}
	return StateDone, w.askClose(ctx)
}

// askClose only closes on an explicit yes; anything else keeps the browser.
func (w *Wizard) askClose(ctx context.Context) error {
	if !w.closePrompt {
		return nil
	}
	answer, err := w.conv.Ask(ctx, "Type 'yes' or 'y' to close the browser:", "")
	if err != nil {
		return err
	}
	if yes, ok := prompt.ParseYesNo(answer); ok && yes {
		return nil
	}
	w.outcome.KeepOpen = true
	return w.conv.Say(ctx, "Browser will remain open.")
}
