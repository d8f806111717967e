// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// pollInterval is how often text conditions are re-evaluated in the page.
const pollInterval = 100 * time.Millisecond

// Session is one browser tab driven through chromedp. It implements schemas.Page.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	stepTimeout time.Duration
	navTimeout  time.Duration

	onClose   func()
	closeOnce sync.Once
	closeErr  error
}

var _ schemas.Page = (*Session)(nil)

func newSession(tabCtx context.Context, cancel context.CancelFunc, stepTimeout, navTimeout time.Duration, logger *zap.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:          id,
		ctx:         tabCtx,
		cancel:      cancel,
		logger:      logger.With(zap.String("session_id", id)),
		stepTimeout: stepTimeout,
		navTimeout:  navTimeout,
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// run executes actions on the tab bounded by the caller's context and the timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, step string, actions ...chromedp.Action) error {
	opCtx, cancel := withStepTimeout(s.ctx, ctx, timeout)
	defer cancel()

	start := time.Now()
	err := chromedp.Run(opCtx, actions...)
	s.logger.Debug("Browser step finished",
		zap.String("step", step),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", step, err)
	}
	return nil
}

// pollTimeout mirrors the effective deadline so page-side polling never
// outlives the Go-side context.
func (s *Session) pollTimeout(ctx context.Context) time.Duration {
	timeout := s.stepTimeout
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	return timeout
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating", zap.String("url", url))
	return s.run(ctx, s.navTimeout, "navigate to "+url,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *Session) Click(ctx context.Context, selector string) error {
	return s.run(ctx, s.stepTimeout, "click "+selector,
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

// ClickText marks the first matching element in the page, then clicks it with
// real mouse events so that links and buttons nested inside it react.
func (s *Session) ClickText(ctx context.Context, selector, text string) error {
	token := uuid.NewString()
	var found bool
	return s.run(ctx, s.stepTimeout, fmt.Sprintf("click %s containing %q", selector, text),
		chromedp.Poll(jsCall(markByTextJS, selector, text, token), &found,
			chromedp.WithPollingInterval(pollInterval),
			chromedp.WithPollingTimeout(s.pollTimeout(ctx))),
		chromedp.Click(fmt.Sprintf(`[%s="%s"]`, clickMarkerAttr, token), chromedp.ByQuery),
	)
}

func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, s.stepTimeout, "wait for "+selector,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
	)
}

func (s *Session) WaitText(ctx context.Context, selector, text string) error {
	_, err := s.WaitAny(ctx, selector, text)
	return err
}

func (s *Session) WaitAny(ctx context.Context, selector string, texts ...string) (int, error) {
	if len(texts) == 0 {
		return -1, errors.New("wait any: no texts given")
	}
	var match int
	err := s.run(ctx, s.stepTimeout, fmt.Sprintf("wait for %s containing one of %q", selector, texts),
		chromedp.Poll(jsCall(matchAnyJS, selector, texts), &match,
			chromedp.WithPollingInterval(pollInterval),
			chromedp.WithPollingTimeout(s.pollTimeout(ctx))),
	)
	if err != nil {
		return -1, err
	}
	// The script answers index+1 so that zero keeps polling.
	return match - 1, nil
}

func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := s.run(ctx, s.stepTimeout, "read text of "+selector,
		chromedp.TextContent(selector, &text, chromedp.ByQuery),
	); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *Session) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	if err := s.run(ctx, s.stepTimeout, fmt.Sprintf("read %s of %s", name, selector),
		chromedp.AttributeValue(selector, name, &value, &ok, chromedp.ByQuery),
	); err != nil {
		return "", false, err
	}
	return value, ok, nil
}

func (s *Session) OuterHTML(ctx context.Context, selector string) (string, error) {
	var markup string
	if err := s.run(ctx, s.stepTimeout, "read html of "+selector,
		chromedp.OuterHTML(selector, &markup, chromedp.ByQuery),
	); err != nil {
		return "", err
	}
	return markup, nil
}

func (s *Session) TableRows(ctx context.Context, rowSelector string) ([][]string, error) {
	var rows [][]string
	if err := s.run(ctx, s.stepTimeout, "read rows "+rowSelector,
		chromedp.Evaluate(jsCall(tableRowsJS, rowSelector), &rows),
	); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = [][]string{}
	}
	return rows, nil
}

func (s *Session) Clear(ctx context.Context, selector string) error {
	var ok bool
	return s.run(ctx, s.stepTimeout, "clear "+selector,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Evaluate(jsCall(clearJS, selector), &ok),
	)
}

func (s *Session) TypeText(ctx context.Context, selector, text string, delay time.Duration) error {
	actions := []chromedp.Action{
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Focus(selector, chromedp.ByQuery),
	}
	actions = append(actions, typeActions(text, delay)...)
	return s.run(ctx, s.typingTimeout(text, delay), "type into "+selector, actions...)
}

func (s *Session) FillByLabel(ctx context.Context, label, path, value string, delay time.Duration) error {
	xpath := labelXPath(label, path)
	actions := []chromedp.Action{
		chromedp.ScrollIntoView(xpath, chromedp.BySearch),
		chromedp.Focus(xpath, chromedp.BySearch),
	}
	actions = append(actions, typeActions(value, delay)...)
	return s.run(ctx, s.typingTimeout(value, delay), fmt.Sprintf("fill %q", label), actions...)
}

func (s *Session) SelectByLabel(ctx context.Context, label, option string) error {
	xpath := labelXPath(label, "following-sibling::div//select")
	var ok bool
	if err := s.run(ctx, s.stepTimeout, fmt.Sprintf("select %q in %q", option, label),
		chromedp.ScrollIntoView(xpath, chromedp.BySearch),
		chromedp.Evaluate(jsCall(selectByTextJS, xpath, option), &ok),
	); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("select %q in %q: option not found", option, label)
	}
	return nil
}

func (s *Session) SelectIndex(ctx context.Context, selector string, index int) error {
	var ok bool
	if err := s.run(ctx, s.stepTimeout, fmt.Sprintf("select option %d of %s", index, selector),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Evaluate(jsCall(selectIndexJS, selector, index), &ok),
	); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("select option %d of %s: index out of range", index, selector)
	}
	return nil
}

func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-t.C:
		return nil
	}
}

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.ctx) }()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.closeErr = fmt.Errorf("failed to close tab: %w", err)
			}
		case <-ctx.Done():
			s.closeErr = ctx.Err()
		}
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
		s.logger.Debug("Session closed.")
	})
	return s.closeErr
}

// typingTimeout extends the step timeout by the time the keystrokes take.
func (s *Session) typingTimeout(text string, delay time.Duration) time.Duration {
	if s.stepTimeout <= 0 {
		return 0
	}
	return s.stepTimeout + time.Duration(len([]rune(text)))*delay
}

func typeActions(text string, delay time.Duration) []chromedp.Action {
	actions := make([]chromedp.Action, 0, 2*len(text))
	for _, r := range text {
		actions = append(actions, chromedp.KeyEvent(string(r)))
		if delay > 0 {
			actions = append(actions, chromedp.Sleep(delay))
		}
	}
	return actions
}

// labelXPath selects the element at path relative to the first label whose
// text contains label.
func labelXPath(label, path string) string {
	if path == "" {
		path = "following-sibling::input"
	}
	return fmt.Sprintf("//label[contains(normalize-space(.), %s)]/%s", xpathLiteral(label), path)
}

// xpathLiteral quotes s as an XPath 1.0 string literal.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// jsCall wraps body in a function taking a, b and c and invokes it with the
// JSON encoded arguments.
func jsCall(body string, args ...any) string {
	encoded := make([]string, 0, 3)
	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			b = []byte("null")
		}
		encoded = append(encoded, string(b))
	}
	for len(encoded) < 3 {
		encoded = append(encoded, "null")
	}
	return fmt.Sprintf("(function(a, b, c) { %s })(%s)", body, strings.Join(encoded, ", "))
}

// clickMarkerAttr tags the element ClickText resolved so the click can
// address it with a plain CSS selector.
const clickMarkerAttr = "data-webpilot-click"

// Text matching is case-insensitive on whitespace-collapsed text content.
const normalizeJS = `const norm = s => (s || '').replace(/\s+/g, ' ').trim().toLowerCase();`

const (
	markByTextJS = normalizeJS + `
	const needle = norm(b);
	const el = Array.from(document.querySelectorAll(a)).find(e => norm(e.textContent).includes(needle));
	if (!el) return false;
	el.setAttribute('` + clickMarkerAttr + `', c);
	return true;`

	matchAnyJS = normalizeJS + `
	const needles = b.map(norm);
	for (const e of document.querySelectorAll(a)) {
		const t = norm(e.textContent);
		for (let i = 0; i < needles.length; i++) { if (t.includes(needles[i])) return i + 1; }
	}
	return 0;`

	tableRowsJS = `return Array.from(document.querySelectorAll(a)).map(row =>
		Array.from(row.querySelectorAll('th, td')).map(c => (c.textContent || '').trim()));`

	clearJS = `const el = document.querySelector(a);
	if (!el) return false;
	el.value = '';
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;`

	selectByTextJS = `const sel = document.evaluate(a, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!sel) return false;
	const opt = Array.from(sel.options).find(o => o.text.trim() === b);
	if (!opt) return false;
	sel.value = opt.value;
	sel.dispatchEvent(new Event('input', { bubbles: true }));
	sel.dispatchEvent(new Event('change', { bubbles: true }));
	return true;`

	selectIndexJS = `const sel = document.querySelector(a);
	if (!sel || b < 0 || b >= sel.options.length) return false;
	sel.selectedIndex = b;
	sel.dispatchEvent(new Event('input', { bubbles: true }));
	sel.dispatchEvent(new Event('change', { bubbles: true }));
	return true;`
)
