// Package main is the entry point for the site auditor.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/site-audit/auditor/internal/audit"
	"github.com/site-audit/auditor/internal/config"
	"github.com/site-audit/auditor/internal/narrator"
	"github.com/site-audit/auditor/internal/report"
	"github.com/site-audit/auditor/internal/server"
)

func main() {
	godotenv.Load()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	}

	var verbose bool
	root := &cobra.Command{
		Use:           "auditor",
		Short:         "Website audit engine with crawl, findings and Portuguese reporting",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(serveCommand(), auditCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if cfg.APIToken == "" {
				logrus.Warn("API_TOKEN is not set; all authenticated requests will fail")
			}
			if cfg.LLMAPIKey == "" {
				logrus.Info("LLM_API_KEY is not set; /analyze_summary will return 503")
			}

			service := audit.NewService(narrator.New(cfg.LLMAPIKey, cfg.LLMModel))
			service.SetRequestsPerSecond(cfg.CrawlRPS)
			return server.New(cfg, service).Run()
		},
	}
}

func auditCommand() *cobra.Command {
	var xlsxPath string
	var rps float64

	cmd := &cobra.Command{
		Use:   "audit <url>",
		Short: "Run a full audit and print the report JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := config.FromEnv()
			if rps == 0 {
				rps = cfg.CrawlRPS
			}

			service := audit.NewService(narrator.New(cfg.LLMAPIKey, cfg.LLMModel))
			service.SetRequestsPerSecond(rps)

			detailed, fromCache, err := service.FullDetailed(ctx, args[0])
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := report.ExportXLSX(detailed, xlsxPath); err != nil {
					return fmt.Errorf("xlsx export: %w", err)
				}
				logrus.WithField("path", xlsxPath).Info("workbook written")
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(report.Render(detailed, fromCache))
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the report as an Excel workbook to this path")
	cmd.Flags().Float64Var(&rps, "rps", 0, "throttle crawl requests per second (0 = unlimited)")
	return cmd
}
