package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. The WhatsApp
// routes are only registered when whatsapp is non-nil.
func New(payroll *handlers.PayrollHandler, whatsapp *handlers.WhatsAppHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	pay := r.Group("/payroll")
	pay.POST("/preview", payroll.Preview)
	pay.POST("/finalize", payroll.Finalize)
	pay.GET("/reports/:id/export", payroll.ExportReport)

	jobs := r.Group("/jobs")
	jobs.POST("/upload", payroll.Upload)
	jobs.POST("/upload/sheets", payroll.UploadFromSheets)
	jobs.PATCH("", payroll.BulkEdit)
	jobs.POST("/transfer", payroll.Transfer)
	jobs.POST("/:id/surcharge", payroll.ToggleSurcharge)

	r.DELETE("/rate-categories/:id", payroll.DeleteRateCategory)
	r.GET("/ytd/company/:leadID", payroll.CompanyYTD)
	r.GET("/ytd/user/:userID", payroll.YTD)

	if whatsapp != nil {
		r.GET("/webhook", whatsapp.Verify)
		r.POST("/webhook", whatsapp.Receive)
		pay.POST("/reports/:id/notify", whatsapp.ResendNotice)
	}

	if logger != nil {
		logger.Info("router initialized", zap.Bool("whatsapp", whatsapp != nil))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
