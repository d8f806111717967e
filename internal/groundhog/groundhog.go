// Package groundhog looks up a groundhog's prediction for a chosen year on
// groundhog-day.com.
package groundhog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/narrowing"
	"github.com/xkilldash9x/webpilot-cli/internal/predictions"
)

const (
	navGroundhogsSelector = "nav div.nav--md ul li"
	searchReadySelector   = "input[type='search']"
	searchInputSelector   = "input.search"
	resultRowsSelector    = "table tbody tr"
	tableSelector         = "table"
	tableBodySelector     = "table tbody"
	headingSelector       = "h1"
)

// Conversation is the terminal side of the flow.
type Conversation interface {
	narrowing.Conversation
	Println(text string)
}

// Result is the prediction the human asked for.
type Result struct {
	Groundhog  string
	Year       string
	Prediction string
}

// Flow drives the lookup.
type Flow struct {
	page      schemas.Page
	conv      Conversation
	cfg       config.GroundhogConfig
	maxRounds int
	logger    *zap.Logger
}

// NewFlow creates the flow. maxRounds bounds the search and year prompts; zero means unbounded.
func NewFlow(page schemas.Page, conv Conversation, cfg config.GroundhogConfig, maxRounds int, logger *zap.Logger) *Flow {
	return &Flow{
		page:      page,
		conv:      conv,
		cfg:       cfg,
		maxRounds: maxRounds,
		logger:    logger.Named("groundhog"),
	}
}

// Run opens the groundhog list, narrows the search to one groundhog, reads its
// predictions and reports the one for the chosen year.
func (f *Flow) Run(ctx context.Context) (Result, error) {
	if err := f.page.Navigate(ctx, f.cfg.URL); err != nil {
		return Result{}, err
	}
	if err := f.page.ClickText(ctx, navGroundhogsSelector, "Groundhogs"); err != nil {
		return Result{}, fmt.Errorf("could not open the groundhog list: %w", err)
	}
	if err := f.page.WaitVisible(ctx, searchReadySelector); err != nil {
		return Result{}, fmt.Errorf("groundhog search never appeared: %w", err)
	}

	searcher := &BrowserSearcher{
		Page:        f.page,
		KeyDelay:    f.cfg.KeyDelay,
		SettleDelay: f.cfg.SettleDelay,
		OnSearch: func(ctx context.Context) error {
			return f.conv.Say(ctx, "Waiting for search results to update...")
		},
	}
	resolved, err := narrowing.Narrow(ctx, f.conv, searcher, f.logger, narrowing.Options{
		Question:   "Enter the groundhog’s name:",
		NarrowHint: "Please narrow down your results to one groundhog.",
		MaxRounds:  f.maxRounds,
	})
	if err != nil {
		return Result{}, err
	}

	if err := f.page.Click(ctx, resultRowsSelector); err != nil {
		return Result{}, fmt.Errorf("could not open %s: %w", resolved.Name, err)
	}
	if err := f.conv.Say(ctx, fmt.Sprintf("Navigating to %s’s page...", resolved.Name)); err != nil {
		return Result{}, err
	}
	if err := f.page.WaitVisible(ctx, tableBodySelector); err != nil {
		return Result{}, fmt.Errorf("prediction table never appeared: %w", err)
	}

	name, err := f.page.Text(ctx, headingSelector)
	if err != nil {
		return Result{}, err
	}
	if name == "" {
		name = resolved.Name
	}

	markup, err := f.page.OuterHTML(ctx, tableSelector)
	if err != nil {
		return Result{}, err
	}
	rows, err := predictions.ParseTableHTML(markup)
	if err != nil {
		return Result{}, err
	}
	records := predictions.Filter(rows)
	f.logger.Debug("Prediction table read",
		zap.String("groundhog", name),
		zap.Int("rows", len(rows)),
		zap.Int("selectable", len(records)),
	)

	chosen, err := predictions.SelectYear(ctx, f.conv, name, records, f.maxRounds, f.logger)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", name, err)
	}

	res := Result{Groundhog: name, Year: chosen.Year, Prediction: chosen.Prediction}
	f.conv.Println("")
	f.conv.Println(res.String())
	return res, nil
}

func (r Result) String() string {
	return fmt.Sprintf("%s’s prediction for %s is: %s", r.Groundhog, r.Year, r.Prediction)
}

// BrowserSearcher runs a name search in the groundhog list of an open page.
type BrowserSearcher struct {
	Page        schemas.Page
	KeyDelay    time.Duration
	SettleDelay time.Duration
	// OnSearch runs after typing, before the settle pause.
	OnSearch func(ctx context.Context) error
}

var _ narrowing.Searcher = (*BrowserSearcher)(nil)

// Search replaces the search box contents with fragment and returns the
// name cell of every row left in the results table.
func (b *BrowserSearcher) Search(ctx context.Context, fragment string) ([]string, error) {
	if err := b.Page.Clear(ctx, searchInputSelector); err != nil {
		return nil, err
	}
	if err := b.Page.TypeText(ctx, searchInputSelector, fragment, b.KeyDelay); err != nil {
		return nil, err
	}
	if b.OnSearch != nil {
		if err := b.OnSearch(ctx); err != nil {
			return nil, err
		}
	}
	if err := b.Page.Sleep(ctx, b.SettleDelay); err != nil {
		return nil, err
	}

	rows, err := b.Page.TableRows(ctx, resultRowsSelector)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		name := ""
		if len(row) > 0 {
			name = row[0]
		}
		names = append(names, name)
	}
	return names, nil
}
