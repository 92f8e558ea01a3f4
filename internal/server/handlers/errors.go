package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/repository/xlsx"
	"github.com/mamadbah2/fieldpay/internal/service/jobs"
	"github.com/mamadbah2/fieldpay/internal/service/payroll"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{models.ErrNotFound, http.StatusNotFound},
	{models.ErrCategoryNotFound, http.StatusNotFound},
	{models.ErrCategoryInUse, http.StatusConflict},
	{models.ErrAlreadyFinalized, http.StatusConflict},
	{models.ErrInvalidWindow, http.StatusBadRequest},
	{xlsx.ErrEmptyWorkbook, http.StatusBadRequest},
	{payroll.ErrEmptyWindow, http.StatusUnprocessableEntity},
	{jobs.ErrSurchargeCodeMissing, http.StatusUnprocessableEntity},
	{jobs.ErrNoRateCategory, http.StatusUnprocessableEntity},
	{jobs.ErrNoStandardRate, http.StatusUnprocessableEntity},
	{jobs.ErrUnknownTechnician, http.StatusUnprocessableEntity},
	{jobs.ErrEmptyPatch, http.StatusUnprocessableEntity},
	{jobs.ErrNegativeRate, http.StatusUnprocessableEntity},
	{jobs.ErrConflictingPatch, http.StatusUnprocessableEntity},
	{jobs.ErrNoJobsSelected, http.StatusUnprocessableEntity},
}

func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes the error as JSON. Server errors are logged and their
// detail is not exposed.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
