package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/flockcare/internal/config"
	"github.com/mamadbah2/flockcare/internal/domain/models"
)

const dateFormat = "2006-01-02"

// LedgerMirror appends finance ledger entries to a spreadsheet for the accounting team.
// The sheet is a read-only copy; the ledger collection stays authoritative.
type LedgerMirror struct {
	service       *sheetsapi.Service
	spreadsheetID string
	sheetRange    string
	logger        *zap.Logger
}

// NewLedgerMirror builds a mirror backed by the Google Sheets API.
func NewLedgerMirror(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*LedgerMirror, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &LedgerMirror{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		sheetRange:    cfg.FinanceRange,
		logger:        logger,
	}, nil
}

// AppendLedgerEntry appends one row per entry.
func (m *LedgerMirror) AppendLedgerEntry(ctx context.Context, entry models.FinanceLedgerEntry) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{ledgerRow(entry)}}

	call := m.service.Spreadsheets.Values.Append(m.spreadsheetID, m.sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append ledger entry %s into range %s: %w", entry.ID, m.sheetRange, err)
	}

	m.logger.Debug("ledger entry mirrored", zap.String("entry_id", entry.ID), zap.String("range", m.sheetRange))
	return nil
}

func ledgerRow(entry models.FinanceLedgerEntry) []interface{} {
	return []interface{}{
		entry.Date.Format(dateFormat),
		entry.ID,
		entry.BatchID,
		entry.Category,
		entry.CostType,
		fmt.Sprintf("%.2f", entry.Amount),
		entry.RelatedRecordID,
		string(entry.Source),
	}
}
