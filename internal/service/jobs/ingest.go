package jobs

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/domain/money"
)

// Skip reasons recorded in the ingest skip log.
const (
	ReasonDuplicateExisting = "duplicate of existing"
	ReasonDuplicateInFile   = "duplicate within file"
	ReasonInvalidRow        = "invalid row"
	ReasonUnknownTechnician = "unknown technician"
)

// Skip is one row that did not become a job.
type Skip struct {
	Row       int    `json:"row"`
	Key       string `json:"key"`
	WorkOrder string `json:"work_order"`
	TaskCode  string `json:"task_code"`
	Reason    string `json:"reason"`
}

// IngestResult lists the jobs to store and the rows left out.
type IngestResult struct {
	Jobs     []models.Job     `json:"jobs"`
	Skipped  []Skip           `json:"skipped"`
	Warnings []models.Warning `json:"warnings"`
}

// Ingest turns parsed rows into new jobs. A row whose (work order, task code,
// technician) key matches an existing job, or a row seen earlier in the same
// batch, goes to the skip log instead of failing the batch. The technician
// column is matched against users the way keys compare and the stored job
// carries the user's own id; rows naming no known user are skipped.
func Ingest(existing []models.Job, rows []models.UploadRow, users []models.User) IngestResult {
	return ingest(existing, rows, users, uuid.NewString)
}

func ingest(existing []models.Job, rows []models.UploadRow, users []models.User, newID func() string) IngestResult {
	technicians := newTechnicianIndex(users)

	stored := make(map[string]bool, len(existing))
	for _, job := range existing {
		stored[job.Key()] = true
	}
	batch := make(map[string]bool, len(rows))

	var res IngestResult
	for _, row := range rows {
		key := models.DuplicateKey(row.WorkOrder, row.TaskCode, row.TechnicianID)
		skip := Skip{Row: row.Row, Key: key, WorkOrder: row.WorkOrder, TaskCode: row.TaskCode}

		if msg := validateRow(row); msg != "" {
			skip.Reason = ReasonInvalidRow
			res.Skipped = append(res.Skipped, skip)
			res.Warnings = append(res.Warnings, models.Warning{
				Kind:    models.WarningUnparseableRow,
				Message: msg,
				UserID:  row.TechnicianID,
				Row:     row.Row,
			})
			continue
		}

		technicianID, ok := technicians.lookup(row.TechnicianID)
		if !ok {
			skip.Reason = ReasonUnknownTechnician
			res.Skipped = append(res.Skipped, skip)
			res.Warnings = append(res.Warnings, models.Warning{
				Kind:    models.WarningUnknownTechnician,
				Message: fmt.Sprintf("row %d: no technician matches %q", row.Row, strings.TrimSpace(row.TechnicianID)),
				UserID:  strings.TrimSpace(row.TechnicianID),
				Row:     row.Row,
			})
			continue
		}
		key = models.DuplicateKey(row.WorkOrder, row.TaskCode, technicianID)
		skip.Key = key

		reason := ""
		switch {
		case stored[key]:
			reason = ReasonDuplicateExisting
		case batch[key]:
			reason = ReasonDuplicateInFile
		}
		if reason != "" {
			skip.Reason = reason
			res.Skipped = append(res.Skipped, skip)
			res.Warnings = append(res.Warnings, models.Warning{
				Kind:     models.WarningDuplicateJob,
				Message:  fmt.Sprintf("row %d: %s (%s)", row.Row, reason, key),
				UserID:   technicianID,
				TaskCode: row.TaskCode,
				Row:      row.Row,
			})
			continue
		}
		batch[key] = true

		job := models.Job{
			ID:           newID(),
			WorkOrder:    strings.TrimSpace(row.WorkOrder),
			TechnicianID: technicianID,
			TaskCode:     models.NormalizeTaskCode(row.TaskCode),
			Quantity:     row.Quantity,
			Revenue:      rowRevenue(row),
			Date:         row.Date,
		}
		if row.RateOverride != nil {
			job.RateOverride = money.Ptr(*row.RateOverride)
		}
		res.Jobs = append(res.Jobs, job)
	}
	return res
}

// technicianIndex maps upload technician cells to user ids. An exact id wins
// over a case-insensitive match.
type technicianIndex struct {
	exact  map[string]string
	folded map[string]string
}

func newTechnicianIndex(users []models.User) technicianIndex {
	idx := technicianIndex{
		exact:  make(map[string]string, len(users)),
		folded: make(map[string]string, len(users)),
	}
	for _, u := range users {
		idx.exact[u.ID] = u.ID
		if _, ok := idx.folded[models.IDKey(u.ID)]; !ok {
			idx.folded[models.IDKey(u.ID)] = u.ID
		}
	}
	return idx
}

func (idx technicianIndex) lookup(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	if id, ok := idx.exact[cell]; ok {
		return id, true
	}
	id, ok := idx.folded[models.IDKey(cell)]
	return id, ok
}

func validateRow(row models.UploadRow) string {
	switch {
	case strings.TrimSpace(row.TechnicianID) == "":
		return fmt.Sprintf("row %d: missing technician", row.Row)
	case strings.TrimSpace(row.TaskCode) == "":
		return fmt.Sprintf("row %d: missing task code", row.Row)
	case strings.TrimSpace(row.WorkOrder) == "":
		return fmt.Sprintf("row %d: missing work order", row.Row)
	case row.Quantity <= 0:
		return fmt.Sprintf("row %d: quantity must be positive", row.Row)
	}
	return ""
}

// rowRevenue prefers the row total and falls back to unit revenue times quantity.
func rowRevenue(row models.UploadRow) money.Cents {
	if row.Revenue != nil {
		return *row.Revenue
	}
	if row.UnitRevenue != nil {
		return row.UnitRevenue.Times(row.Quantity)
	}
	return 0
}
