package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/repository/xlsx"
	"github.com/mamadbah2/fieldpay/internal/service/jobs"
	"github.com/mamadbah2/fieldpay/internal/service/payroll"
	"github.com/mamadbah2/fieldpay/internal/service/reporting"
	"github.com/mamadbah2/fieldpay/internal/service/ytd"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PayrollService is the payroll surface the HTTP layer needs.
type PayrollService interface {
	Preview(ctx context.Context, window *models.Window) (payroll.Result, error)
	Finalize(ctx context.Context, window models.Window) (reporting.FinalizeOutcome, error)
	Report(ctx context.Context, id string) (models.Report, error)
	UploadRecords(ctx context.Context, records [][]string) (reporting.UploadOutcome, error)
	BulkEdit(ctx context.Context, ids []string, patch models.JobPatch) (jobs.Outcome, error)
	ToggleSurcharge(ctx context.Context, jobID string, on bool) (models.Job, error)
	Transfer(ctx context.Context, ids []string, technicianID string) (jobs.Outcome, error)
	DeleteRateCategory(ctx context.Context, id string) error
	YTD(ctx context.Context, userID string, year int) (ytd.Summary, error)
	CompanyYTD(ctx context.Context, leadID string, year int) (ytd.CompanySummary, error)
	Location() *time.Location
	Now() time.Time
}

// UploadSource supplies upload rows from a shared spreadsheet.
type UploadSource interface {
	ReadUploadRows(ctx context.Context) ([][]string, error)
}

// PayrollHandler exposes payroll operations over HTTP.
type PayrollHandler struct {
	svc    PayrollService
	sheet  UploadSource
	logger *zap.Logger
}

// NewPayrollHandler constructs the HTTP handler adapter. sheet may be nil
// when no spreadsheet is configured.
func NewPayrollHandler(svc PayrollService, sheet UploadSource, logger *zap.Logger) *PayrollHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollHandler{svc: svc, sheet: sheet, logger: logger}
}

func (h *PayrollHandler) window(req models.PreviewRequest) (*models.Window, error) {
	if req.Start == "" && req.End == "" {
		return nil, nil
	}
	loc := h.svc.Location()
	start, err := time.ParseInLocation(models.DateLayout, req.Start, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q", models.ErrInvalidWindow, req.Start)
	}
	end, err := time.ParseInLocation(models.DateLayout, req.End, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q", models.ErrInvalidWindow, req.End)
	}
	w, err := models.NewWindow(start, end)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Preview aggregates a window, or the live summary when no dates are sent.
func (h *PayrollHandler) Preview(c *gin.Context) {
	var req models.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	window, err := h.window(req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	res, err := h.svc.Preview(c.Request.Context(), window)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Finalize closes a window into a report.
func (h *PayrollHandler) Finalize(c *gin.Context) {
	var req models.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	window, err := h.window(req)
	if err == nil && window == nil {
		err = fmt.Errorf("%w: start and end are required", models.ErrInvalidWindow)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	out, err := h.svc.Finalize(c.Request.Context(), *window)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	status := http.StatusCreated
	if out.AlreadyFinalized {
		status = http.StatusOK
	}
	c.JSON(status, out)
}

// ExportReport streams a finalized report as an xlsx workbook.
func (h *PayrollHandler) ExportReport(c *gin.Context) {
	report, err := h.svc.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	f, err := xlsx.ExportReport(report)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	buffer, err := f.WriteToBuffer()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("payroll_%d_%s.xlsx", report.PaymentID, report.WindowEnd.Format(models.DateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, xlsxContentType, buffer.Bytes())
}

// Upload ingests a multipart xlsx file sent as "file".
func (h *PayrollHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer file.Close()

	records, err := xlsx.ReadRows(file, c.PostForm("sheet"))
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	h.ingest(c, records)
}

// UploadFromSheets ingests the configured spreadsheet range.
func (h *PayrollHandler) UploadFromSheets(c *gin.Context) {
	if h.sheet == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google sheets is not configured"})
		return
	}
	records, err := h.sheet.ReadUploadRows(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.ingest(c, records)
}

func (h *PayrollHandler) ingest(c *gin.Context, records [][]string) {
	out, err := h.svc.UploadRecords(c.Request.Context(), records)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// BulkEdit applies a sparse patch to many jobs.
func (h *PayrollHandler) BulkEdit(c *gin.Context) {
	var req models.BulkEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	out, err := h.svc.BulkEdit(c.Request.Context(), req.IDs, req.Patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ToggleSurcharge switches the aerial drop surcharge of one job.
func (h *PayrollHandler) ToggleSurcharge(c *gin.Context) {
	var req models.SurchargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	job, err := h.svc.ToggleSurcharge(c.Request.Context(), c.Param("id"), req.On)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Transfer reassigns jobs to another technician.
func (h *PayrollHandler) Transfer(c *gin.Context) {
	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	out, err := h.svc.Transfer(c.Request.Context(), req.IDs, req.TechnicianID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// DeleteRateCategory removes an unassigned rate category.
func (h *PayrollHandler) DeleteRateCategory(c *gin.Context) {
	if err := h.svc.DeleteRateCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// YTD returns a technician's year-to-date earnings.
func (h *PayrollHandler) YTD(c *gin.Context) {
	year, ok := h.year(c)
	if !ok {
		return
	}
	out, err := h.svc.YTD(c.Request.Context(), c.Param("userID"), year)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CompanyYTD returns a team-lead's year-to-date rollup.
func (h *PayrollHandler) CompanyYTD(c *gin.Context) {
	year, ok := h.year(c)
	if !ok {
		return
	}
	out, err := h.svc.CompanyYTD(c.Request.Context(), c.Param("leadID"), year)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *PayrollHandler) year(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("year"))
	if raw == "" {
		return h.svc.Now().Year(), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a four digit number"})
		return 0, false
	}
	return year, true
}
