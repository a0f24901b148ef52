package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/romaneio-sheets/internal/app"
	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/export"
	"github.com/joseph-ayodele/romaneio-sheets/internal/pipeline"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/documents"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/history"
	"github.com/joseph-ayodele/romaneio-sheets/internal/utils"
)

var version = "0.1.0"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config   string
	db       string
	logLevel string
	backend  string
}

func main() {
	var g globalFlags
	rootCmd := &cobra.Command{
		Use:   "romaneio",
		Short: "Turn delivery manifests (romaneios) into spreadsheets",
		Long: `romaneio reads route manifests (PDF or text), finds every invoice block
and writes one row per invoice with the shipment header fields repeated.

Example:
  romaneio parse rota600.pdf rota601.pdf --format xlsx
  romaneio parse ./romaneios/ --format json --out notas.json
  romaneio watch ./entrada --out ./planilhas`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.config, "config", "", "YAML config file (overrides "+common.ConfigFileEnv+")")
	rootCmd.PersistentFlags().StringVar(&g.db, "db", "", "history database DSN (overrides DB_URL)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "debug|info|warn|error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&g.backend, "backend", "", "PDF backend auto|pdftotext|pdfcpu (overrides EXTRACT_BACKEND)")

	rootCmd.AddCommand(parseCmd(&g))
	rootCmd.AddCommand(textCmd(&g))
	rootCmd.AddCommand(runsCmd(&g))
	rootCmd.AddCommand(watchCmd(&g))
	rootCmd.AddCommand(schemaCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// build loads configuration, applies flag overrides and assembles the app.
// Logs go to stderr so stdout stays clean for JSON output.
func build(ctx context.Context, g *globalFlags) (*app.App, error) {
	if g.config != "" {
		if err := os.Setenv(common.ConfigFileEnv, g.config); err != nil {
			return nil, err
		}
	}
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, err
	}
	if g.db != "" {
		cfg.Database.DSN = g.db
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.backend != "" {
		cfg.Extract.Backend = strings.ToLower(g.backend)
	}
	logger := common.NewLogger(os.Stderr, cfg.Log.Level)
	return app.New(ctx, cfg, logger)
}

func parseCmd(g *globalFlags) *cobra.Command {
	var (
		format     string
		out        string
		skipHidden bool
		quiet      bool
	)
	cmd := &cobra.Command{
		Use:   "parse <file|dir>...",
		Short: "Parse manifests into JSON or XLSX",
		Long: `Parse every given PDF/TXT file, and every PDF/TXT found under given directories
(lexical order, duplicate content skipped), into one consolidated record list.

With --format json the records go to stdout unless --out is set.
With --format xlsx the workbook is written to --out, or to
romaneio_rota_<rota>.xlsx in the current directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if v := common.NewValidator().Field("format", format, common.OneOf("json", "xlsx")); v.HasErrors() {
				return v.Error()
			}
			a, err := build(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Documents.ParsePaths(cmd.Context(), history.OriginCLI, documents.PathsRequest{Paths: args, SkipHidden: skipHidden})
			if err != nil {
				return err
			}
			if !quiet {
				printReport(cmd.ErrOrStderr(), res)
			}
			records := res.Batch.Records()

			switch format {
			case "xlsx":
				if len(records) == 0 {
					return fmt.Errorf("no notes found, spreadsheet not written")
				}
				if out == "" {
					out = export.DownloadName(records)
				}
				data, err := a.Export.WriteXLSX(records)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Planilha gravada em %s\n", out)
				return nil
			default:
				return writeJSONOut(cmd.OutOrStdout(), out, func(w io.Writer) error {
					return export.WriteJSON(w, records)
				})
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json|xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip hidden files and directories when walking")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the summary")
	return cmd
}

func textCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "text <file>",
		Short: "Print the extracted, normalized text of one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Extractor.Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "aviso: %s\n", w)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return err
		},
	}
}

func runsCmd(g *globalFlags) *cobra.Command {
	var (
		limit   int
		id      string
		records bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, or show one with --id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()
			hist := a.History()

			if id == "" {
				n, err := utils.ListRunsRequest{Limit: limit}.Normalize()
				if err != nil {
					return err
				}
				runs, err := hist.ListRuns(cmd.Context(), n)
				if err != nil {
					return err
				}
				return writeIndented(cmd.OutOrStdout(), utils.NewRunsView(runs))
			}

			runID, err := utils.RunRequest{ID: id}.RunID()
			if err != nil {
				return err
			}
			detail, err := hist.GetRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			view := utils.RunDetailView{Run: detail.Run, Documents: detail.Documents}
			if records {
				if view.Records, err = hist.RunRecords(cmd.Context(), runID); err != nil {
					return err
				}
			}
			return writeIndented(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "maximum runs to list")
	cmd.Flags().StringVar(&id, "id", "", "show a single run")
	cmd.Flags().BoolVar(&records, "records", false, "include the run's records (with --id)")
	return cmd
}

// printReport writes the operator messages and totals, mirroring what the
// upload UI shows after a batch.
func printReport(w io.Writer, res *documents.Outcome) {
	for _, m := range res.Batch.Messages() {
		prefix := "aviso"
		if m.Level == pipeline.LevelError {
			prefix = "erro"
		}
		fmt.Fprintf(w, "%s: %s\n", prefix, m.Text)
	}
	s := res.Batch.Summary()
	fmt.Fprintf(w, "Documentos: %d  Notas: %d  Falhas: %d\n", s.Documents, s.Notes, s.Failed)
	fmt.Fprintf(w, "Soma das Notas (R$): %s\n", export.FormatBRL(s.TotalNota))
	fmt.Fprintf(w, "Peso Total: %s\n", export.FormatBRL(s.PesoTotal))
	if res.RunID != uuid.Nil {
		fmt.Fprintf(w, "Execução registrada: %s\n", res.RunID)
	}
	if res.HistoryErr != nil {
		fmt.Fprintf(w, "aviso: execução não registrada: %v\n", res.HistoryErr)
	}
}

func writeJSONOut(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
