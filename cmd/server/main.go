package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/config"
	"github.com/mamadbah2/fieldpay/internal/repository/mongodb"
	"github.com/mamadbah2/fieldpay/internal/repository/sheets"
	"github.com/mamadbah2/fieldpay/internal/scheduler"
	"github.com/mamadbah2/fieldpay/internal/server/handlers"
	"github.com/mamadbah2/fieldpay/internal/server/router"
	commandsvc "github.com/mamadbah2/fieldpay/internal/service/commands"
	reportingsvc "github.com/mamadbah2/fieldpay/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/fieldpay/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/fieldpay/pkg/clients/whatsapp"
	"github.com/mamadbah2/fieldpay/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Payroll.Location()
	if err != nil {
		baseLogger.Fatal("invalid payroll timezone", zap.Error(err))
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()

	mongoRepo, err := mongodb.NewMongoDBRepository(initCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()
	if err := mongoRepo.EnsureIndexes(initCtx); err != nil {
		baseLogger.Fatal("failed to ensure mongodb indexes", zap.Error(err))
	}

	reportingSvc := reportingsvc.NewService(mongoRepo, reportingsvc.Options{
		Location:           loc,
		SurchargeTaskCode:  cfg.Payroll.SurchargeTaskCode,
		DefaultProfitShare: cfg.Payroll.DefaultProfitShare,
	}, baseLogger.Named("svc.reporting"))

	var uploadSource handlers.UploadSource
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(initCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		payrollSheet := sheets.NewPayrollSheet(sheetsRepo, cfg.Sheets)
		reportingSvc.SetSummaryWriter(payrollSheet)
		uploadSource = payrollSheet
		baseLogger.Info("google sheets enabled", zap.String("spreadsheet_id", cfg.Sheets.SpreadsheetID))
	} else {
		baseLogger.Warn("google sheets not configured, summary publishing and sheet uploads disabled")
	}

	var whatsappHandler *handlers.WhatsAppHandler
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		commandDispatcher := commandsvc.NewService(reportingSvc, baseLogger.Named("svc.commands"))
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		reportingSvc.SetNotifier(messagingSvc)
		whatsappHandler = handlers.NewWhatsAppHandler(messagingSvc, reportingSvc, baseLogger.Named("handlers.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp access token missing, messaging disabled")
	}

	payrollHandler := handlers.NewPayrollHandler(reportingSvc, uploadSource, baseLogger.Named("handlers.payroll"))
	engine := router.New(payrollHandler, whatsappHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Payroll, reportingSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
