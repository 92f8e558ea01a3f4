package sheets

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/mamadbah2/fieldpay/internal/config"
	"github.com/mamadbah2/fieldpay/internal/domain/models"
)

type fakeRepo struct {
	read    [][]interface{}
	written map[string][][]interface{}
}

func (f *fakeRepo) WriteRows(_ context.Context, sheetRange string, values [][]interface{}) error {
	if f.written == nil {
		f.written = make(map[string][][]interface{})
	}
	f.written[sheetRange] = append(f.written[sheetRange], values...)
	return nil
}

func (f *fakeRepo) ReadRange(context.Context, string) ([][]interface{}, error) {
	return f.read, nil
}

func TestReadUploadRowsStringifiesCells(t *testing.T) {
	repo := &fakeRepo{read: [][]interface{}{
		{"technician", "quantity"},
		{" t1 ", float64(2)},
		{"t2"},
	}}
	sheet := NewPayrollSheet(repo, config.SheetsConfig{UploadRange: "Jobs!A1:J"})

	got, err := sheet.ReadUploadRows(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := [][]string{{"technician", "quantity"}, {"t1", "2"}, {"t2"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
}

func TestAppendPayrollSummary(t *testing.T) {
	repo := &fakeRepo{}
	sheet := NewPayrollSheet(repo, config.SheetsConfig{SummaryRange: "Payroll!A1"})
	report := models.Report{
		PaymentID:   19,
		WindowStart: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2024, 5, 12, 23, 59, 59, 0, time.UTC),
		Technicians: []models.ProcessedTechnician{
			{TechnicianID: "t1", Name: "Amy", JobCount: 3, JobEarnings: 14500, AdjustmentTotal: -500, TotalEarnings: 14000, CompanyMargin: 6000},
		},
	}

	if err := sheet.AppendPayrollSummary(context.Background(), report); err != nil {
		t.Fatalf("append: %v", err)
	}
	rows := repo.written["Payroll!A1"]
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	want := []interface{}{19, "2024-05-06", "2024-05-12", "t1", "Amy", 3, "145.00", "-5.00", "140.00", "60.00"}
	if !reflect.DeepEqual(rows[0], want) {
		t.Fatalf("row = %v, want %v", rows[0], want)
	}
}
