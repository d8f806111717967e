// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

var (
	cfgFile string
	osExit  = os.Exit
)

// flagBindings maps persistent flags onto config keys.
var flagBindings = map[string]string{
	"defaults":     "vote.defaults_file",
	"headless":     "browser.headless",
	"log-level":    "logger.console_level",
	"max-attempts": "prompt.max_attempts",
	"provider":     "llm.provider",
	"model":        "llm.model",
	"type-effect":  "prompt.type_effect",
}

// newRootCmd builds the command tree around a fresh viper instance.
func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	root := &cobra.Command{
		Use:   "webpilot",
		Short: "Webpilot walks public web forms for you, one question at a time.",
		Long: `Webpilot drives a real browser through public web pages while holding a
plain conversation in the terminal. Free-text answers are turned into form
fields by a language model.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(v); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "webpilot"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Info("Starting webpilot", zap.String("version", Version), zap.String("command", cmd.Name()))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	flags.String("defaults", "data.json", "answers file used to pre-fill prompts")
	flags.Bool("headless", true, "run the browser without a window")
	flags.String("log-level", "warn", "console log level (logs always go to stderr)")
	flags.Int("max-attempts", 0, "bound every re-ask loop (0 means unbounded)")
	flags.String("provider", string(config.ProviderOpenAI), "extraction provider: openai, gemini or anthropic")
	flags.String("model", "gpt-4o-mini", "extraction model name")
	flags.Bool("type-effect", true, "print assistant lines one character at a time")
	for name, key := range flagBindings {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	root.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)
	root.AddCommand(newGroundhogCmd(), newVoteCmd(), newVersionCmd())
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute(ctx context.Context) {
	code := exitCode(newRootCmd().ExecuteContext(ctx))
	observability.Sync()
	if code != 0 {
		osExit(code)
	}
}

// exitCode reports err and maps it to a process exit code. Interrupts and a
// closed input stream end the process quietly.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		observability.GetLogger().Info("Stopped before completion", zap.Error(err))
		return 0
	default:
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
}

// initializeConfig loads .env, the config file and WEBPILOT_* variables.
func initializeConfig(v *viper.Viper) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("WEBPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in context")
	}
	return cfg, nil
}
