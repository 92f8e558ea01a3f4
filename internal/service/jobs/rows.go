package jobs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/domain/money"
)

type column int

const (
	colTechnician column = iota
	colTaskCode
	colWorkOrder
	colQuantity
	colRevenue
	colUnitRevenue
	colDate
	colRate
)

var headerAliases = map[string]column{
	"technician":        colTechnician,
	"technician id":     colTechnician,
	"tech":              colTechnician,
	"tech id":           colTechnician,
	"employee id":       colTechnician,
	"task code":         colTaskCode,
	"task":              colTaskCode,
	"code":              colTaskCode,
	"work order":        colWorkOrder,
	"work order number": colWorkOrder,
	"wo":                colWorkOrder,
	"quantity":          colQuantity,
	"qty":               colQuantity,
	"revenue":           colRevenue,
	"total":             colRevenue,
	"total revenue":     colRevenue,
	"amount":            colRevenue,
	"unit revenue":      colUnitRevenue,
	"unit price":        colUnitRevenue,
	"price":             colUnitRevenue,
	"date":              colDate,
	"completed":         colDate,
	"completion date":   colDate,
	"rate":              colRate,
	"rate override":     colRate,
}

var dateLayouts = []string{
	models.DateLayout,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1/2/06",
	"Jan 2, 2006",
	"2-Jan-2006",
	time.RFC3339,
}

// ParseRows reads a tabular upload whose first row is a header. Columns are
// matched by name, not position. Blank rows are ignored; rows that cannot be
// read become unparseable-row warnings. Dates without a zone are read in loc
// (UTC when nil). Row numbers are 1-based and count the header.
func ParseRows(records [][]string, loc *time.Location) ([]models.UploadRow, []models.Warning) {
	if loc == nil {
		loc = time.UTC
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := make(map[column]int)
	for i, name := range records[0] {
		if c, ok := headerAliases[normalizeHeader(name)]; ok {
			if _, dup := cols[c]; !dup {
				cols[c] = i
			}
		}
	}
	var missing []string
	for c, name := range map[column]string{colTechnician: "technician", colTaskCode: "task code", colWorkOrder: "work order", colDate: "date"} {
		if _, ok := cols[c]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, []models.Warning{{
			Kind:    models.WarningUnparseableRow,
			Message: "header is missing required columns: " + strings.Join(missing, ", "),
			Row:     1,
		}}
	}

	var (
		rows     []models.UploadRow
		warnings []models.Warning
	)
	for i, record := range records[1:] {
		rowNum := i + 2
		if blank(record) {
			continue
		}
		row, err := parseRow(record, cols, loc)
		if err != nil {
			warnings = append(warnings, models.Warning{
				Kind:    models.WarningUnparseableRow,
				Message: fmt.Sprintf("row %d: %v", rowNum, err),
				Row:     rowNum,
			})
			continue
		}
		row.Row = rowNum
		rows = append(rows, row)
	}
	return rows, warnings
}

func parseRow(record []string, cols map[column]int, loc *time.Location) (models.UploadRow, error) {
	cell := func(c column) string {
		i, ok := cols[c]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := models.UploadRow{
		TechnicianID: cell(colTechnician),
		TaskCode:     cell(colTaskCode),
		WorkOrder:    cell(colWorkOrder),
		Quantity:     1,
	}

	if raw := cell(colQuantity); raw != "" {
		qty, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return row, fmt.Errorf("quantity %q: %w", raw, err)
		}
		row.Quantity = qty
	}

	date, err := parseDate(cell(colDate), loc)
	if err != nil {
		return row, err
	}
	row.Date = date

	for _, f := range []struct {
		col  column
		dest **money.Cents
	}{
		{colRevenue, &row.Revenue},
		{colUnitRevenue, &row.UnitRevenue},
		{colRate, &row.RateOverride},
	} {
		raw := cell(f.col)
		if raw == "" {
			continue
		}
		amount, err := money.Parse(raw)
		if err != nil {
			return row, err
		}
		*f.dest = money.Ptr(amount)
	}
	return row, nil
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	// Spreadsheet serial day number, counted from 1899-12-30.
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 && serial < 200000 {
		base := time.Date(1899, 12, 30, 0, 0, 0, 0, loc)
		return base.AddDate(0, 0, int(serial)), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

func normalizeHeader(name string) string {
	name = strings.ToLower(name)
	name = strings.NewReplacer("_", " ", "-", " ", "#", " ", ".", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

