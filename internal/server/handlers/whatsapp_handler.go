package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	service "github.com/mamadbah2/fieldpay/internal/service/whatsapp"
)

// ReportFinder loads finalized reports.
type ReportFinder interface {
	Report(ctx context.Context, id string) (models.Report, error)
}

// WhatsAppHandler serves the WhatsApp webhook and payroll notices.
type WhatsAppHandler struct {
	svc     service.MessagingService
	reports ReportFinder
	logger  *zap.Logger
}

// NewWhatsAppHandler constructs the HTTP handler adapter.
func NewWhatsAppHandler(svc service.MessagingService, reports ReportFinder, logger *zap.Logger) *WhatsAppHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsAppHandler{svc: svc, reports: reports, logger: logger}
}

// Verify answers Meta's subscription challenge.
func (h *WhatsAppHandler) Verify(c *gin.Context) {
	challenge, err := h.svc.VerifyWebhookToken(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("webhook verification rejected", zap.Error(err))
		c.String(http.StatusForbidden, "forbidden")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive handles technician messages. A failed reply is logged and still
// acknowledged: redeliveries are dropped as duplicates, so a non-2xx status
// would only make Meta retry for nothing.
func (h *WhatsAppHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("payroll command reply failed", zap.Error(err))
	}
	c.Status(http.StatusOK)
}

// ResendNotice sends the finalize notice of a stored report to the payroll
// manager again.
func (h *WhatsAppHandler) ResendNotice(c *gin.Context) {
	report, err := h.reports.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.svc.NotifyFinalized(c.Request.Context(), report); err != nil {
		h.logger.Error("resend payroll notice", zap.String("report_id", report.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "whatsapp delivery failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"report_id": report.ID, "payment_id": report.PaymentID})
}
