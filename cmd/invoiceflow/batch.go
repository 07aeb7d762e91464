package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/export"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir-or-files...>",
		Short: "Process a batch of invoices",
		Long: `Process multiple PDF invoices through the pipeline. One failing
document never aborts the batch; its record carries the error instead.

Examples:
  invoiceflow batch ./inbox
  invoiceflow batch a.pdf b.pdf c.pdf
  invoiceflow batch --export-xlsx staged.xlsx ./inbox`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBatch,
	}

	cmd.Flags().StringP("user", "u", "", "User ID recorded on the invoices")
	cmd.Flags().StringP("mode", "m", "batch", "Processing mode (batch, upload, test)")
	cmd.Flags().Bool("strict", false, "Treat validation warnings as errors")
	cmd.Flags().String("export-xlsx", "", "Write staged invoices to an XLSX workbook")

	_ = viper.BindPFlag("batch.user", cmd.Flags().Lookup("user"))
	_ = viper.BindPFlag("batch.mode", cmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("validation.strict", cmd.Flags().Lookup("strict"))
	_ = viper.BindPFlag("batch.export_xlsx", cmd.Flags().Lookup("export-xlsx"))

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mode, err := model.ParseMode(viper.GetString("batch.mode"))
	if err != nil {
		return err
	}

	docs, err := collectDocuments(args)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no PDF documents found in %v", args)
	}

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	slog.Info("starting batch", "documents", len(docs), "mode", mode)

	result, err := p.engine.ProcessBatch(ctx, docs, viper.GetString("batch.user"), mode)
	if err != nil {
		return err
	}

	for _, record := range result.Results {
		reportRecord(record)
	}
	slog.Info("batch complete",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"elapsed", result.Elapsed)

	if path := viper.GetString("batch.export_xlsx"); path != "" {
		if err := writeWorkbook(path, result.Results); err != nil {
			return err
		}
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", result.Failed, result.Total)
	}
	return nil
}

func writeWorkbook(path string, records []model.ProcessingRecord) error {
	data, err := export.StageWorkbook(records)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	slog.Info("staged invoices exported", "path", path)
	return nil
}
