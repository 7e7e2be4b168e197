package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/csrdesk/internal/app"
	"github.com/markdave123-py/csrdesk/internal/config"
	db "github.com/markdave123-py/csrdesk/internal/core/database"
	"github.com/markdave123-py/csrdesk/internal/core/ingestion_engine"
	"github.com/markdave123-py/csrdesk/internal/core/language"
	"github.com/markdave123-py/csrdesk/internal/core/llm"
	objectclient "github.com/markdave123-py/csrdesk/internal/core/object-client"
	"github.com/markdave123-py/csrdesk/internal/logger"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "csrctl",
		Short:        "Operate a csrdesk deployment",
		SilenceUsage: true,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.AddCommand(newIngestCommand(), newQCCommand(), newChunkCommand())
	return cmd
}

// withComponents connects to the configured database and storage and hands
// the wired services to fn. The stub LLM is used; no command generates text.
func withComponents(ctx context.Context, fn func(*app.Components) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	dbClient, err := db.NewDatabaseClient(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	obj, err := objectclient.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	c, err := app.NewComponents(cfg, dbClient, obj, llm.NewStubLLM(), log)
	if err != nil {
		return err
	}
	return fn(c)
}

func newIngestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <source-id>",
		Short: "Extract, chunk and index one source document synchronously",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd.Context(), func(c *app.Components) error {
				n, err := c.Sources.Reindex(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "source %s: %d chunks\n", args[0], n)
				return nil
			})
		},
	}
}

func newQCCommand() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "qc <document-id>",
		Short: "Run quality checks on an output document and print open issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if lang != "" {
				if _, err := language.Parse(lang); err != nil {
					return err
				}
			}
			return withComponents(cmd.Context(), func(c *app.Components) error {
				issues, err := c.QC.Run(cmd.Context(), args[0], nil, lang)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(issues) == 0 {
					fmt.Fprintln(out, "no issues")
					return nil
				}
				for _, is := range issues {
					fmt.Fprintf(out, "[%s] %s\n", is.Severity, is.Message)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&lang, "language", "", "language used when the document has none (ru|en)")
	return cmd
}

func newChunkCommand() *cobra.Command {
	var maxSize, minSize int
	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Extract a local file and print its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			text, err := ingestion_engine.NewDocconvExtractor(false).ExtractText(cmd.Context(), data, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			chunks := ingestion_engine.ChunkText(text, maxSize, minSize)
			out := cmd.OutOrStdout()
			for i, ch := range chunks {
				fmt.Fprintf(out, "--- chunk %d (%d chars)\n%s\n", i, len([]rune(ch)), ch)
			}
			fmt.Fprintf(out, "%d chunks\n", len(chunks))
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSize, "max", ingestion_engine.DefaultMaxChunkSize, "maximum chunk size in characters")
	cmd.Flags().IntVar(&minSize, "min", ingestion_engine.DefaultMinChunkSize, "minimum chunk size in characters")
	return cmd
}
