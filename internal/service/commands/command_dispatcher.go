package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/service/payroll"
	"github.com/mamadbah2/fieldpay/internal/service/ytd"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// ErrUnknownSender indicates the sender's phone matches no user.
var ErrUnknownSender = errors.New("sender is not a registered technician")

const dateFormat = "Jan 2"

// HelpText lists the supported commands.
const HelpText = "Payroll commands:\n/pay - unpaid jobs so far\n/week - this week including adjustments\n/ytd [year] - year-to-date earnings"

// PayrollAdapter defines the payroll functions required by the dispatcher.
type PayrollAdapter interface {
	UserByPhone(ctx context.Context, phone string) (models.User, error)
	LiveSummary(ctx context.Context, userID string) (models.ProcessedTechnician, bool, error)
	Preview(ctx context.Context, window *models.Window) (payroll.Result, error)
	YTD(ctx context.Context, userID string, year int) (ytd.Summary, error)
	Location() *time.Location
}

// Dispatcher executes parsed commands on behalf of a sender.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	payroll PayrollAdapter
	logger  *zap.Logger
	now     func() time.Time
}

// NewService constructs a command dispatcher.
func NewService(payroll PayrollAdapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		payroll: payroll,
		logger:  logger,
		now:     time.Now,
	}
}

// HandleCommand answers a technician's command with a text reply.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Any("args", cmd.Args))

	switch cmd.Type {
	case models.CommandHelp:
		return HelpText, nil
	case models.CommandPay, models.CommandWeek, models.CommandYTD:
	default:
		return "", ErrUnsupportedCommand
	}

	user, err := s.payroll.UserByPhone(ctx, sender)
	if errors.Is(err, models.ErrNotFound) {
		return "", ErrUnknownSender
	}
	if err != nil {
		return "", err
	}
	now := s.now().In(s.payroll.Location())

	switch cmd.Type {
	case models.CommandPay:
		entry, ok, err := s.payroll.LiveSummary(ctx, user.ID)
		if err != nil {
			return "", err
		}
		if !ok {
			return fmt.Sprintf("%s, you have no unpaid jobs yet.", user.DisplayName()), nil
		}
		return fmt.Sprintf("%s, unpaid jobs: %d\nEarned: %s\nAverage per job: %s",
			user.DisplayName(), entry.JobCount, entry.JobEarnings.USD(), entry.AveragePerJob.USD()), nil

	case models.CommandWeek:
		window, err := models.NewWindow(mondayStart(now), now)
		if err != nil {
			return "", err
		}
		res, err := s.payroll.Preview(ctx, &window)
		if err != nil {
			return "", err
		}
		for _, entry := range res.Technicians {
			if entry.TechnicianID == user.ID {
				return weekMessage(window, entry), nil
			}
		}
		return fmt.Sprintf("Week of %s: nothing recorded yet.", window.Start.Format(dateFormat)), nil

	default:
		year := now.Year()
		if len(cmd.Args) > 0 {
			y, err := strconv.Atoi(cmd.Args[0])
			if err != nil || y < 2000 || y > now.Year() {
				return "", ErrInvalidArguments
			}
			year = y
		}
		summary, err := s.payroll.YTD(ctx, user.ID, year)
		if err != nil {
			return "", err
		}
		message := fmt.Sprintf("%d year-to-date: %s across %d pay periods.", year, summary.Earnings.USD(), summary.Reports)
		if summary.TaxableLoans != 0 {
			message += fmt.Sprintf("\nTaxable loans: %s\nTotal: %s", summary.TaxableLoans.USD(), summary.Total.USD())
		}
		return message, nil
	}
}

func weekMessage(window models.Window, entry models.ProcessedTechnician) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week of %s: %d jobs, %s", window.Start.Format(dateFormat), entry.JobCount, entry.JobEarnings.USD())
	for _, adj := range entry.Adjustments {
		label := adj.Description
		if label == "" {
			label = string(adj.Kind)
		}
		fmt.Fprintf(&b, "\n%s: %s", label, adj.Amount.USD())
	}
	fmt.Fprintf(&b, "\nTotal: %s", entry.TotalEarnings.USD())
	return b.String()
}

func mondayStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	daysSinceMonday := (weekday + 6) % 7
	start := t.AddDate(0, 0, -daysSinceMonday)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, t.Location())
}
