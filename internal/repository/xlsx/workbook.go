package xlsx

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
)

// ErrEmptyWorkbook is returned when the uploaded sheet has no rows.
var ErrEmptyWorkbook = errors.New("worksheet is empty")

const (
	sheetSummary     = "Summary"
	sheetJobs        = "Jobs"
	sheetAdjustments = "Adjustments"
)

// ReadRows returns every row of the named sheet, or of the first sheet when
// sheet is empty, as formatted text.
func ReadRows(r io.Reader, sheet string) ([][]string, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	if sheet == "" {
		sheet = file.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("no worksheet found")
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return rows, nil
}

// ExportReport renders a finalized report as a workbook with a summary sheet
// and the frozen job and adjustment detail.
func ExportReport(report models.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetJobs, sheetAdjustments} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})

	title := fmt.Sprintf("Payroll #%d  %s to %s", report.PaymentID,
		report.WindowStart.Format(models.DateLayout), report.WindowEnd.Format(models.DateLayout))
	_ = f.SetCellValue(sheetSummary, "A1", title)
	_ = f.SetCellStyle(sheetSummary, "A1", "A1", titleStyle)

	summary := [][]interface{}{{"Technician ID", "Name", "Role", "Jobs", "Revenue", "Job Earnings", "Adjustments", "Total Earnings", "Company Margin", "Average / Job"}}
	var jobs, adjustments [][]interface{}
	jobs = append(jobs, []interface{}{"Technician ID", "Job ID", "Work Order", "Task Code", "Date", "Quantity", "Rate", "Rate Source", "Aerial Drop", "Earning", "Revenue"})
	adjustments = append(adjustments, []interface{}{"Technician ID", "Adjustment ID", "Date", "Kind", "Description", "Amount"})

	for _, tech := range report.Technicians {
		summary = append(summary, []interface{}{
			tech.TechnicianID, tech.Name, string(tech.Role), tech.JobCount,
			tech.TotalRevenue.Dollars(), tech.JobEarnings.Dollars(), tech.AdjustmentTotal.Dollars(),
			tech.TotalEarnings.Dollars(), tech.CompanyMargin.Dollars(), tech.AveragePerJob.Dollars(),
		})
		for _, job := range tech.Jobs {
			jobs = append(jobs, []interface{}{
				tech.TechnicianID, job.JobID, job.WorkOrder, job.TaskCode, job.Date.Format(models.DateLayout),
				job.Quantity, job.AppliedRate.Dollars(), string(job.RateSource), job.AerialDrop,
				job.Earning.Dollars(), job.Revenue.Dollars(),
			})
		}
		for _, adj := range tech.Adjustments {
			adjustments = append(adjustments, []interface{}{
				tech.TechnicianID, adj.ID, adj.Date.Format(models.DateLayout), string(adj.Kind), adj.Description, adj.Amount.Dollars(),
			})
		}
	}
	summary = append(summary, []interface{}{"", "Total", "", "", "", "", "", report.TotalEarnings().Dollars()})

	for _, block := range []struct {
		sheet    string
		firstRow int
		rows     [][]interface{}
	}{
		{sheetSummary, 3, summary},
		{sheetJobs, 1, jobs},
		{sheetAdjustments, 1, adjustments},
	} {
		if err := writeRows(f, block.sheet, block.firstRow, block.rows); err != nil {
			return nil, err
		}
		width := len(block.rows[0])
		first, _ := excelize.CoordinatesToCellName(1, block.firstRow)
		last, _ := excelize.CoordinatesToCellName(width, block.firstRow)
		_ = f.SetCellStyle(block.sheet, first, last, headerStyle)
		lastCol, _ := excelize.ColumnNumberToName(width)
		_ = f.SetColWidth(block.sheet, "A", lastCol, 16)
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeRows(f *excelize.File, sheet string, firstRow int, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, firstRow+i)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, firstRow+i, err)
		}
	}
	return nil
}
