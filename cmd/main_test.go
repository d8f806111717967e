package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/llmclient"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
)

// resetForTest isolates package state, the working directory and the logger.
func resetForTest(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("WEBPILOT_LOGGER_LOG_FILE", filepath.Join(dir, "webpilot.log"))
	t.Setenv("WEBPILOT_LOGGER_CONSOLE_LEVEL", "fatal")
	t.Setenv("WEBPILOT_VOTE_INTRO", "false")

	cfgFile = ""
	observability.ResetForTest()
	t.Cleanup(func() {
		osExit = osExitDefault
		openPage = openBrowserPage
		newLLMClient = llmclient.NewClient
		observability.ResetForTest()
	})
}

var osExitDefault = osExit

// executeCommand runs a fresh command tree with the given stdin and args.
func executeCommand(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(input))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--type-effect=false"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// stubPage replaces the browser with page and counts releases.
func stubPage(t *testing.T, page schemas.Page) *int {
	t.Helper()
	released := 0
	openPage = func(context.Context, *config.Config, *zap.Logger) (schemas.Page, func(context.Context) error, error) {
		return page, func(context.Context) error {
			released++
			return nil
		}, nil
	}
	return &released
}

func findCommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	c, _, err := root.Find([]string{name})
	require.NoError(t, err)
	return c
}
