package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/feyti/medreport/internal/adapters/database"
	"github.com/feyti/medreport/internal/adapters/documents"
	"github.com/feyti/medreport/internal/adapters/search"
	"github.com/feyti/medreport/internal/application/services"
	"github.com/feyti/medreport/internal/extraction"
	"github.com/feyti/medreport/internal/infrastructure/clients"
	"github.com/feyti/medreport/internal/infrastructure/clients/postgres"
	"github.com/feyti/medreport/internal/infrastructure/clients/typesense"
	"github.com/feyti/medreport/internal/translation"
	"github.com/feyti/medreport/pkg/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Medical report extraction and translation tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(translateCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reindexCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and points the global logger at stderr so
// command output on stdout stays machine readable.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Server.LogLevel))
	if err != nil || cfg.Server.LogLevel == "" {
		level = zerolog.WarnLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return cfg, nil
}

func extractCmd() *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "extract [file|-]",
		Short: "Extract structured fields from a report and print them as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			text, err := readReport(cfg, args, contentType, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("report text is empty")
			}

			report, err := extraction.NewAssembler().Process(text)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "content type of the input file (detected from the extension when empty)")
	return cmd
}

func readReport(cfg *config.Config, args []string, contentType string, stdin io.Reader) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	format, err := documents.DetectFormat(filepath.Base(path), contentType)
	if err != nil {
		return "", err
	}
	decoder, err := documents.NewDecoder(cfg.Upload.PDFLicenseKey, documents.WithMaxTextBytes(5*cfg.Upload.MaxUploadBytes()))
	if err != nil {
		return "", err
	}
	return decoder.Decode(content, format)
}

func translateCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate text to French or Swahili",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(data)
			}

			ctx := cmd.Context()
			provider, err := clients.NewTranslationProvider(ctx, cfg)
			if err != nil {
				log.Warn().Err(err).Msg("Translation provider unavailable; using fallback dictionary")
			}
			facade := translation.NewFacade(provider, translation.Config{
				Timeout:         cfg.Translation.Timeout,
				BreakerFailures: cfg.Translation.BreakerFailures,
				BreakerCooldown: cfg.Translation.BreakerCooldown,
			}, nil)

			result, err := facade.Translate(ctx, text, lang)
			if err != nil {
				return err
			}
			log.Debug().Str("provider", result.Provider).Msg("Translated")
			fmt.Fprintln(cmd.OutOrStdout(), result.TranslatedText)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", translation.LangFrench, "target language (fr or sw)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the reports table and indexes if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			client, err := postgres.NewClient(ctx, &cfg.Database)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := database.NewReportAdapter(client, nil).EnsureSchema(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reports schema is up to date")
			return nil
		},
	}
}

func reindexCmd() *cobra.Command {
	var (
		reset     bool
		interval  time.Duration
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the Typesense reports collection from Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if interval < 0 {
				return fmt.Errorf("interval must not be negative")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for {
				if err := reindexOnce(ctx, cfg, reset, batchSize); err != nil {
					if interval == 0 {
						return err
					}
					log.Error().Err(err).Msg("Reindex failed")
				}
				if interval == 0 {
					return nil
				}

				reset = false
				log.Info().Dur("next_run_in", interval).Msg("Waiting for next reindex")
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(interval):
				}
			}
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "drop the reports collection before reindexing")
	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat reindexing at this interval (e.g. 6h)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 500, "reports read from Postgres per page")
	return cmd
}

func reindexOnce(ctx context.Context, cfg *config.Config, reset bool, batchSize int) error {
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}

	if reset {
		if _, err := tsClient.Client().Collection(typesense.ReportsCollection).Delete(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete reports collection")
		}
	}
	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	indexer := services.NewSearchIndexerService(
		database.NewReportAdapter(pgClient, nil),
		search.NewTypesenseAdapter(tsClient),
		batchSize,
	)
	stats, err := indexer.Reindex(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d reports (%d failed)\n", stats.Indexed, stats.Failed)
	return nil
}
