package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/fieldpay/internal/config"
	"github.com/mamadbah2/fieldpay/internal/domain/models"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRows(ctx context.Context, sheetRange string, values [][]interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRows appends the provided rows to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRows(ctx context.Context, sheetRange string, values [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}
	if len(values) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: values}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("rows", len(values)))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// PayrollSheet reads job uploads from and writes payroll summaries to a spreadsheet.
type PayrollSheet struct {
	repo         Repository
	uploadRange  string
	summaryRange string
}

// NewPayrollSheet binds a repository to the configured ranges.
func NewPayrollSheet(repo Repository, cfg config.SheetsConfig) *PayrollSheet {
	return &PayrollSheet{repo: repo, uploadRange: cfg.UploadRange, summaryRange: cfg.SummaryRange}
}

// ReadUploadRows returns the upload range as plain text cells, header included.
func (p *PayrollSheet) ReadUploadRows(ctx context.Context) ([][]string, error) {
	values, err := p.repo.ReadRange(ctx, p.uploadRange)
	if err != nil {
		return nil, err
	}
	return toStrings(values), nil
}

// AppendPayrollSummary writes one row per technician of the report.
func (p *PayrollSheet) AppendPayrollSummary(ctx context.Context, report models.Report) error {
	return p.repo.WriteRows(ctx, p.summaryRange, summaryRows(report))
}

func summaryRows(report models.Report) [][]interface{} {
	rows := make([][]interface{}, 0, len(report.Technicians))
	for _, tech := range report.Technicians {
		rows = append(rows, []interface{}{
			report.PaymentID,
			report.WindowStart.Format(models.DateLayout),
			report.WindowEnd.Format(models.DateLayout),
			tech.TechnicianID,
			tech.Name,
			tech.JobCount,
			tech.JobEarnings.String(),
			tech.AdjustmentTotal.String(),
			tech.TotalEarnings.String(),
			tech.CompanyMargin.String(),
		})
	}
	return rows
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				continue
			}
			cells[i] = strings.TrimSpace(fmt.Sprint(v))
		}
		out = append(out, cells)
	}
	return out
}
