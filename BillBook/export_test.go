package BillBook

import (
	"bytes"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func cell(t *testing.T, f *excelize.File, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(statementSheet, axis)
	require.NoError(t, err)
	return v
}

func amountCell(t *testing.T, f *excelize.File, axis string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(cell(t, f, axis), 64)
	require.NoError(t, err, "cell %s", axis)
	return v
}

func TestExportStatement(t *testing.T) {
	ctx := context.Background()
	e := New(newTestDB(t))
	ledger := mustLedger(t, e, "Sand Supplier")

	gave := credit(1500)
	gave.Date = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	gave.Remarks = "Advance"
	_, err := e.AddEntry(ctx, ledger.ID, gave)
	require.NoError(t, err)

	got := debit(400)
	got.Date = time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	got.Mode = "UPI"
	_, err = e.AddEntry(ctx, ledger.ID, got)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.ExportStatement(ctx, ledger.ID, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Sand Supplier", cell(t, f, "A1"))
	assert.Equal(t, "Type: VENDOR", cell(t, f, "A2"))
	assert.Equal(t, "Net Balance: 1100.00 (You'll Get)", cell(t, f, "A4"))
	assert.Equal(t, "You Got (+)", cell(t, f, "D6"))
	assert.Equal(t, "You Gave (-)", cell(t, f, "E6"))

	// newest first
	assert.Equal(t, "2026-01-12", cell(t, f, "A7"))
	assert.Equal(t, "-", cell(t, f, "B7"))
	assert.Equal(t, "UPI", cell(t, f, "C7"))
	assert.Equal(t, 400.0, amountCell(t, f, "D7"))
	assert.Empty(t, cell(t, f, "E7"))

	assert.Equal(t, "2026-01-10", cell(t, f, "A8"))
	assert.Equal(t, "Advance", cell(t, f, "B8"))
	assert.Empty(t, cell(t, f, "D8"))
	assert.Equal(t, 1500.0, amountCell(t, f, "E8"))

	assert.Empty(t, cell(t, f, "A9"))
}

func TestExportStatementUnknownLedger(t *testing.T) {
	e := New(newTestDB(t))

	var buf bytes.Buffer
	err := e.ExportStatement(context.Background(), 99, &buf)
	assert.ErrorIs(t, err, ErrLedgerNotFound)
	assert.Zero(t, buf.Len())
}
