package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/yaml.v3"

	"go.pilab.hu/oauth2/config"
	"go.pilab.hu/oauth2/internal/app"
	"go.pilab.hu/oauth2/log"
	"go.pilab.hu/oauth2/tracing"
)

const appName = "oauth2ctl"

var (
	cfgFile string

	appLogger log.Logger
	engine    *app.App
	tp        *sdktrace.TracerProvider
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "oauth2ctl drives the OAuth2 token engine from the command line",
	Long: `A command-line interface for issuing, refreshing, inspecting and revoking
OAuth2 codes and tokens against the configured storage backend.

The memory storage driver lives only for the duration of one command; use
the bolt, redis or mongo driver to keep tokens between invocations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		appLogger = log.NewZerologAdapter(log.ParseLevel(cfg.Log.Level), cfg.Log.Pretty)

		if cfg.Otel.Enabled {
			tp, err = tracing.InitTracerProvider(cfg.Otel.ServiceName)
			if err != nil {
				return fmt.Errorf("failed to initialize tracer provider: %w", err)
			}
		}

		engine, err = app.New(cmd.Context(), cfg, appLogger)

		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		return shutdown(cmd.Context())
	},
}

func shutdown(ctx context.Context) error {
	var err error
	if engine != nil {
		err = engine.Close(ctx)
		engine = nil
	}

	if tp != nil {
		if tpErr := tp.Shutdown(context.Background()); tpErr != nil && err == nil {
			err = tpErr
		}
		tp = nil
	}

	return err
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_ = shutdown(ctx)

		if appLogger != nil {
			appLogger.Error(ctx, "command failed", err)
		} else {
			fmt.Fprintln(os.Stderr, "command failed:", err)
		}
		os.Exit(1)
	}
}

// printRecord writes v to the command output as YAML.
func printRecord(cmd *cobra.Command, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(out)

	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./oauth2.yaml, $HOME/.oauth2/oauth2.yaml or /etc/oauth2/oauth2.yaml)")
}
