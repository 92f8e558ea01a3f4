package xlsx

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
)

func TestReadRowsFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetSheetRow("Sheet1", "A1", &[]interface{}{"technician", "work order", "task code"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]interface{}{"t1", "WO-1", "INSTALL"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, err := ReadRows(&buf, "")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "WO-1" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestReadRowsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := excelize.NewFile().Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if _, err := ReadRows(&buf, ""); !errors.Is(err, ErrEmptyWorkbook) {
		t.Fatalf("expected ErrEmptyWorkbook, got %v", err)
	}
}

func TestExportReport(t *testing.T) {
	report := models.Report{
		ID:          "r1",
		PaymentID:   19,
		WindowStart: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2024, 5, 12, 23, 59, 59, 0, time.UTC),
		Technicians: []models.ProcessedTechnician{{
			TechnicianID:  "t1",
			Name:          "Amy",
			JobCount:      1,
			JobEarnings:   12000,
			TotalEarnings: 12000,
			Jobs:          []models.ProcessedJob{{JobID: "j1", WorkOrder: "WO-1", TaskCode: "INSTALL", Quantity: 2, AppliedRate: 6000, Earning: 12000}},
			Adjustments:   []models.Adjustment{{ID: "a1", Kind: models.AdjustmentBonus, Amount: 0}},
		}},
	}

	f, err := ExportReport(report)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if got := f.GetSheetList(); len(got) != 3 || got[0] != "Summary" {
		t.Fatalf("sheets = %v", got)
	}
	title, _ := f.GetCellValue("Summary", "A1")
	if title != "Payroll #19  2024-05-06 to 2024-05-12" {
		t.Fatalf("title = %q", title)
	}
	name, _ := f.GetCellValue("Summary", "B4")
	if name != "Amy" {
		t.Fatalf("summary name = %q", name)
	}
	jobRows, err := f.GetRows("Jobs")
	if err != nil {
		t.Fatalf("jobs sheet: %v", err)
	}
	if len(jobRows) != 2 || jobRows[1][1] != "j1" {
		t.Fatalf("jobs rows = %v", jobRows)
	}
}
