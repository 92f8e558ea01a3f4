package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/config"
	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/service/commands"
	client "github.com/mamadbah2/fieldpay/pkg/clients/whatsapp"
)

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	NotifyFinalized(ctx context.Context, report models.Report) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	seen       *seenMessages
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		seen:       newSeenMessages(24 * time.Hour),
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

const nonCommandReply = "Only text commands are supported here.\n" + commands.HelpText

var errorReplies = map[error]string{
	commands.ErrUnknownSender:      "This number is not linked to a technician profile. Ask the office to add it.",
	commands.ErrInvalidArguments:   "Could not read that command. Example: /ytd 2024",
	commands.ErrUnsupportedCommand: "Unknown command.\n" + commands.HelpText,
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	if len(payload.Entry) == 0 {
		return nil
	}

	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) == 0 {
				continue
			}

			for _, msg := range change.Value.Messages {
				if !s.seen.firstTime(msg.ID) {
					s.logger.Debug("duplicate webhook delivery ignored", zap.String("message_id", msg.ID))
					continue
				}
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := msg.CommandText()
	if strings.TrimSpace(text) == "" {
		s.logger.Debug("non-command message", zap.String("from", msg.From), zap.String("type", msg.Type))
		return s.send(ctx, msg.From, nonCommandReply)
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Any("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, msg.From)
	if err != nil {
		friendly, known := replyForError(err)
		if !known {
			s.logger.Error("command failed", zap.String("command", string(cmd.Type)), zap.Error(err))
		}
		reply = friendly
	}

	return s.send(ctx, msg.From, reply)
}

// NotifyFinalized tells the payroll manager a report was stored.
func (s *MetaWhatsAppService) NotifyFinalized(ctx context.Context, report models.Report) error {
	if s.cfg.PayrollManagerID == "" {
		return nil
	}
	body := fmt.Sprintf("Payroll #%d finalized (%s to %s)\nTechnicians: %d\nTotal earnings: %s",
		report.PaymentID,
		report.WindowStart.Format(models.DateLayout),
		report.WindowEnd.Format(models.DateLayout),
		len(report.Technicians),
		report.TotalEarnings().USD())
	return s.send(ctx, s.cfg.PayrollManagerID, body)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:   to,
		Body: body,
	})
	return err
}

func replyForError(err error) (string, bool) {
	for target, reply := range errorReplies {
		if errors.Is(err, target) {
			return reply, true
		}
	}
	return "Something went wrong while looking up your pay. Please try again later.", false
}
