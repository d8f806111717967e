package browser

import (
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// listen logs page-side failures of the tab. Scripts that throw usually
// explain a selector that never shows up.
func (s *Session) listen() {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *runtime.EventExceptionThrown:
			if ev.ExceptionDetails == nil {
				return
			}
			s.logger.Debug("Page script exception",
				zap.String("text", exceptionText(ev.ExceptionDetails)),
				zap.String("url", ev.ExceptionDetails.URL),
				zap.Int64("line", ev.ExceptionDetails.LineNumber),
			)
		case *runtime.EventConsoleAPICalled:
			if ev.Type != runtime.APITypeError && ev.Type != runtime.APITypeWarning {
				return
			}
			s.logger.Debug("Page console message",
				zap.String("level", ev.Type.String()),
				zap.String("text", consoleText(ev.Args)),
			)
		case *page.EventJavascriptDialogOpening:
			s.logger.Warn("Page opened a dialog; automation will stall until it is closed",
				zap.String("type", ev.Type.String()),
				zap.String("message", ev.Message),
			)
		}
	})
}

func exceptionText(d *runtime.ExceptionDetails) string {
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}

func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case arg == nil:
		case arg.Description != "":
			parts = append(parts, arg.Description)
		case len(arg.Value) > 0:
			parts = append(parts, strings.Trim(string(arg.Value), `"`))
		}
	}
	return strings.Join(parts, " ")
}
