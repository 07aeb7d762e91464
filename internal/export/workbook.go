package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

// StageWorkbook renders the export-ready records of a batch as an XLSX
// workbook. Records that were not staged are skipped.
func StageWorkbook(records []model.ProcessingRecord) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet excelize creates.
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Batch ID",
		"Issue Date",
		"Issuer",
		"Invoice Number",
		"Category",
		"Account Code",
		"Account Name",
		"Currency",
		"Amount (Incl. Tax)",
		"JPY Amount",
		"File",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, record := range records {
		if record.Export == nil || !record.Export.Ready || record.Extraction == nil {
			continue
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		extraction := record.Extraction
		write(1, record.Export.BatchID)
		write(2, extraction.IssueDate)
		write(3, extraction.Issuer)
		write(4, extraction.InvoiceNumber)
		write(5, record.Export.Category)
		write(6, record.Export.AccountCode)
		write(7, record.Export.AccountName)
		write(8, extraction.Currency)
		write(9, string(extraction.AmountInclusiveTax))
		if record.Conversion != nil && record.Conversion.JPYAmount != nil {
			write(10, fmt.Sprintf("%.2f", *record.Conversion.JPYAmount))
		}
		write(11, record.Filename)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 30)
	_ = f.SetColWidth(sheet, "C", "C", 28)
	_ = f.SetColWidth(sheet, "G", "G", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
