package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"oraculo/internal/core"
	"oraculo/internal/log"
)

// SheetsSink appends expenses to a Google spreadsheet, one row per entry:
// date, user, description, amount in reais, category, type.
type SheetsSink struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

func NewSheetsSink(ctx context.Context, cfg SheetsConfig, logger *log.Logger) (*SheetsSink, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	var credentials []byte
	switch {
	case cfg.CredentialsJSON != "":
		credentials = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentials = data
	default:
		return nil, errors.New("missing Google credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Despesas"
	}

	return &SheetsSink{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent("sheets"),
	}, nil
}

func (s *SheetsSink) AppendRow(ctx context.Context, e core.LedgerEntry) error {
	if s.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		e.ExpenseDate.Format("2006-01-02"),
		e.UserID,
		e.Description,
		e.Amount.Reais(),
		e.Category,
		e.ExpenseType,
	}

	rng := fmt.Sprintf("%s!A:F", s.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to sheet %s: %w", s.sheetName, err)
	}

	s.logger.InfoContext(ctx, "Appended expense row",
		"id", e.ID,
		"user_id", e.UserID,
		"sheet", s.sheetName)
	return nil
}
