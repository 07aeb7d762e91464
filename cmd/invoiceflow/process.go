package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/engine"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <invoice.pdf>",
		Short: "Process a single invoice",
		Long: `Process one PDF invoice through the full pipeline: upload, AI
extraction, validation, currency conversion, approval evaluation, export
staging, and persistence.

Examples:
  invoiceflow process invoice.pdf
  invoiceflow process --mode test sample.pdf   # OCR accuracy test run
  invoiceflow process --strict invoice.pdf     # treat warnings as errors`,
		Args: cobra.ExactArgs(1),
		RunE: runProcess,
	}

	cmd.Flags().StringP("user", "u", "", "User ID recorded on the invoice")
	cmd.Flags().StringP("mode", "m", "upload", "Processing mode (upload, test)")
	cmd.Flags().Bool("strict", false, "Treat validation warnings as errors")

	_ = viper.BindPFlag("process.user", cmd.Flags().Lookup("user"))
	_ = viper.BindPFlag("process.mode", cmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("validation.strict", cmd.Flags().Lookup("strict"))

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mode, err := model.ParseMode(viper.GetString("process.mode"))
	if err != nil {
		return err
	}

	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	attachProgressBar(p.engine, fmt.Sprintf("Processing %s...", doc.Filename))

	record, err := p.engine.ProcessSingle(ctx, doc, viper.GetString("process.user"), mode)
	if err != nil {
		return err
	}

	reportRecord(record)
	if !record.Success {
		return fmt.Errorf("processing failed: %s", record.ErrorMessage)
	}
	return nil
}

// attachProgressBar renders pipeline progress events as a terminal bar.
func attachProgressBar(eng *engine.Engine, description string) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(description),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	eng.OnProgress(func(event model.ProgressEvent) {
		if event.Stage == model.StageFailed {
			return
		}
		_ = bar.Set(event.Percent)
	})
}

func reportRecord(record model.ProcessingRecord) {
	if !record.Success {
		slog.Error("invoice processing failed",
			"filename", record.Filename,
			"error", record.ErrorMessage,
			"elapsed", record.Elapsed)
		return
	}

	attrs := []any{
		"filename", record.Filename,
		"invoice_id", record.InvoiceID,
		"elapsed", record.Elapsed,
	}
	if record.Extraction != nil {
		attrs = append(attrs,
			"issuer", record.Extraction.Issuer,
			"currency", record.Extraction.Currency)
	}
	if record.Validation != nil {
		attrs = append(attrs,
			"valid", record.Validation.IsValid,
			"completeness", record.Validation.CompletenessScore)
	}
	if record.Approval != nil {
		attrs = append(attrs, "approval", string(record.Approval.Status))
	}
	slog.Info("invoice processed", attrs...)
}
