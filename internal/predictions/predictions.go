// Package predictions filters a scraped prediction table and lets the human
// pick a year from it.
package predictions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"
)

const noPredictionMarker = "No prediction"

var (
	// ErrNoPredictions is returned when no row survives filtering.
	ErrNoPredictions = errors.New("no predictions available")
	// ErrYearNotSelected is returned when a bounded year prompt gives up.
	ErrYearNotSelected = errors.New("no valid year selected within the round limit")
)

// Record is one selectable prediction.
type Record struct {
	Year       string
	Prediction string
}

// Filter keeps rows with more than one cell whose last cell carries a
// forecast. The first cell is the year label and the last the prediction.
func Filter(rows [][]string) []Record {
	var records []Record
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		last := row[len(row)-1]
		if strings.Contains(last, noPredictionMarker) {
			continue
		}
		records = append(records, Record{Year: row[0], Prediction: last})
	}
	return records
}

// Lookup finds the record whose year label equals year exactly.
func Lookup(records []Record, year string) (Record, bool) {
	for _, r := range records {
		if r.Year == year {
			return r, true
		}
	}
	return Record{}, false
}

// ParseTableHTML reads the body rows of an HTML table snapshot as trimmed cell
// text, header and data cells alike.
func ParseTableHTML(markup string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse table markup: %w", err)
	}

	// The HTML parser inserts tbody for bare rows, so header rows stay out.
	rowSel := doc.Find("tbody tr")

	rows := make([][]string, 0, rowSel.Length())
	rowSel.Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		rows = append(rows, cells)
	})
	return rows, nil
}

// Conversation is the part of the terminal prompter SelectYear needs.
type Conversation interface {
	Ask(ctx context.Context, question, def string) (string, error)
	Say(ctx context.Context, text string) error
	Writer() io.Writer
}

// SelectYear lists the available years and asks for one until it matches a
// record exactly. maxRounds of zero means unbounded.
func SelectYear(ctx context.Context, conv Conversation, name string, records []Record, maxRounds int, logger *zap.Logger) (Record, error) {
	if len(records) == 0 {
		return Record{}, ErrNoPredictions
	}
	logger = logger.Named("predictions")

	for round := 1; ; round++ {
		if err := conv.Say(ctx, "Years with Predictions:"); err != nil {
			return Record{}, err
		}
		renderYears(conv.Writer(), records)

		year, err := conv.Ask(ctx, fmt.Sprintf("Enter a year to see %s’s prediction:", name), "")
		if err != nil {
			return Record{}, err
		}
		if r, ok := Lookup(records, year); ok {
			return r, nil
		}

		logger.Debug("Year not selectable", zap.String("year", year))
		if err := conv.Say(ctx, "Invalid year entered or no prediction available for that year. Please try again."); err != nil {
			return Record{}, err
		}
		if maxRounds > 0 && round >= maxRounds {
			return Record{}, ErrYearNotSelected
		}
	}
}

func renderYears(w io.Writer, records []Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Year"})
	for i, r := range records {
		t.AppendRow(table.Row{i + 1, r.Year})
	}
	t.Render()
}
