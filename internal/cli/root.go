// Package cli wires the cobra command surface. It stays deliberately
// thin: every command calls into the session entry points and renders
// the result.
package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/designcraft-ai/design-assistant/internal/config"
	"github.com/designcraft-ai/design-assistant/internal/llm"
	"github.com/designcraft-ai/design-assistant/internal/session"
	"github.com/designcraft-ai/design-assistant/internal/store"
	"github.com/designcraft-ai/design-assistant/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

type app struct {
	cfg *config.Config
	log *logger.Logger
}

func (a *app) engine() (*session.Engine, error) {
	apiKey := a.cfg.AnthropicAPIKey
	if llm.Provider(a.cfg.Provider) == llm.ProviderOpenAI {
		apiKey = a.cfg.OpenAIAPIKey
	}
	client, err := llm.NewClient(llm.Provider(a.cfg.Provider), apiKey)
	if err != nil {
		return nil, err
	}
	st, err := store.New(a.cfg.TranscriptDir, a.log)
	if err != nil {
		return nil, err
	}
	return session.NewEngine(client, st, a.cfg, a.log), nil
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return err
	}
	defer log.Sync()

	a := &app{cfg: cfg, log: log}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, log)
	}

	root := &cobra.Command{
		Use:           "designer",
		Short:         "Interactive design assistant: gather requirements, generate project docs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newDesignCommand(a),
		newSessionsCommand(a),
		newGenerateCommand(a),
		newVersionCommand(),
	)

	return root.ExecuteContext(ctx)
}

func serveMetrics(addr string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics listener stopped: " + err.Error())
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
