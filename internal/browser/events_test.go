package browser

import (
	"testing"

	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
)

func TestConsoleText(t *testing.T) {
	args := []*runtime.RemoteObject{
		{Type: runtime.TypeString, Value: []byte(`"failed to load"`)},
		nil,
		{Type: runtime.TypeObject, Description: "TypeError: x is undefined"},
	}
	assert.Equal(t, "failed to load TypeError: x is undefined", consoleText(args))
}

func TestExceptionText(t *testing.T) {
	assert.Equal(t, "Uncaught", exceptionText(&runtime.ExceptionDetails{Text: "Uncaught"}))
	assert.Equal(t, "ReferenceError: foo", exceptionText(&runtime.ExceptionDetails{
		Text:      "Uncaught",
		Exception: &runtime.RemoteObject{Description: "ReferenceError: foo"},
	}))
}
