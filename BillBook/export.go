package BillBook

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"SiteBook/Models"
)

const statementSheet = "Statement"

var statementHeaders = []string{"Date", "Remarks", "Mode", "You Got (+)", "You Gave (-)"}

// ExportStatement writes the ledger and all its entries as an .xlsx workbook
func (e *Engine) ExportStatement(ctx context.Context, ledgerID uint, w io.Writer) error {
	ledger, err := e.GetLedger(ctx, ledgerID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return err
	}

	summary := [][]interface{}{
		{ledger.Name},
		{fmt.Sprintf("Type: %s", ledger.Type)},
		{fmt.Sprintf("Generated on: %s", time.Now().Format("2006-01-02"))},
		{fmt.Sprintf("Net Balance: %s (%s)", ledger.Balance.Abs().StringFixed(2), ledger.Status())},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(statementSheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}

	headerRow := len(summary) + 2
	header := make([]interface{}, len(statementHeaders))
	for i, h := range statementHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(statementSheet, fmt.Sprintf("A%d", headerRow), &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(statementSheet, "A1", "A1", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(statementSheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("E%d", headerRow), bold); err != nil {
		return err
	}

	for i, entry := range ledger.Entries {
		row := []interface{}{entry.Date.Format("2006-01-02"), remarksOrDash(entry), entry.Mode, "", ""}
		amount := entry.Amount.InexactFloat64()
		if entry.Type == Models.EntryDebit {
			row[3] = amount
		} else {
			row[4] = amount
		}
		if err := f.SetSheetRow(statementSheet, fmt.Sprintf("A%d", headerRow+1+i), &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(statementSheet, "A", "A", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(statementSheet, "B", "B", 48); err != nil {
		return err
	}

	return f.Write(w)
}

func remarksOrDash(entry Models.LedgerEntry) string {
	if entry.Remarks == "" {
		return "-"
	}
	return entry.Remarks
}
