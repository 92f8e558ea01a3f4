package payroll

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/domain/money"
	"github.com/mamadbah2/fieldpay/internal/service/adjustments"
	"github.com/mamadbah2/fieldpay/internal/service/profitshare"
	"github.com/mamadbah2/fieldpay/internal/service/rates"
)

// Options tune the aggregation.
type Options struct {
	DefaultProfitShare float64
}

// Result is the output of one aggregation.
type Result struct {
	Technicians []models.ProcessedTechnician `json:"technicians"`
	Warnings    []models.Warning             `json:"warnings"`
}

// Aggregator turns a snapshot into per-technician earnings. It keeps no state
// between calls: the same snapshot always yields the same result.
type Aggregator struct {
	opts   Options
	logger *zap.Logger
}

// NewAggregator wires a new aggregator instance.
func NewAggregator(opts Options, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultProfitShare <= 0 {
		opts.DefaultProfitShare = models.DefaultProfitSharePercent
	}
	return &Aggregator{opts: opts, logger: logger}
}

// Aggregate computes the report rows for the snapshot. With a nil window the
// live-summary mode applies: every job counts and adjustments are ignored.
// Configuration gaps never abort the run; they degrade to a zero rate and
// come back as warnings.
func (a *Aggregator) Aggregate(snap models.Snapshot, window *models.Window) Result {
	resolver := rates.NewResolver(snap.Users, snap.Categories)
	warnings := newWarningSet()

	jobsByTech := make(map[string][]models.Job)
	var windowJobs []models.Job
	for _, job := range snap.Jobs {
		if window != nil && !window.Contains(job.Date) {
			continue
		}
		if _, ok := resolver.User(job.TechnicianID); !ok {
			warnings.add(models.Warning{
				Kind:    models.WarningUnknownTechnician,
				Message: "job references unknown technician " + job.TechnicianID,
				JobID:   job.ID,
				UserID:  job.TechnicianID,
			})
			continue
		}
		jobsByTech[job.TechnicianID] = append(jobsByTech[job.TechnicianID], job)
		windowJobs = append(windowJobs, job)
	}

	if window != nil {
		for _, adj := range snap.Adjustments {
			if _, ok := resolver.User(adj.TechnicianID); !ok && window.Contains(adj.Date) {
				warnings.add(models.Warning{
					Kind:    models.WarningUnknownTechnician,
					Message: "adjustment " + adj.ID + " references unknown technician " + adj.TechnicianID,
					UserID:  adj.TechnicianID,
				})
			}
		}
	}

	var out []models.ProcessedTechnician
	processedIDs := make(map[string]bool, len(snap.Users))
	for _, user := range snap.Users {
		if processedIDs[user.ID] {
			continue
		}
		processedIDs[user.ID] = true
		techJobs := jobsByTech[user.ID]

		var adjs []models.Adjustment
		if window != nil {
			adjs = adjustments.Collect(user.ID, *window, snap.Adjustments, snap.Recurring)
			adjs = append(adjs, adjustments.Amortize(user.ID, *window, snap.Loans, adjs)...)
			if user.IsTeamLead() {
				shares, shareWarnings := profitshare.Calculate(user, *window, windowJobs, resolver, a.opts.DefaultProfitShare)
				adjs = append(adjs, shares...)
				warnings.add(shareWarnings...)
			}
		}

		if len(techJobs) == 0 && len(adjs) == 0 {
			continue
		}

		entry := a.process(user, techJobs, adjs, resolver, warnings)
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].TechnicianID < out[j].TechnicianID
	})

	result := Result{Technicians: out, Warnings: warnings.list}
	for _, w := range result.Warnings {
		a.logger.Warn("payroll data-quality warning",
			zap.String("kind", string(w.Kind)),
			zap.String("user_id", w.UserID),
			zap.String("job_id", w.JobID),
			zap.String("task_code", w.TaskCode),
			zap.String("message", w.Message))
	}
	a.logger.Debug("payroll aggregated", zap.Int("technicians", len(out)), zap.Int("warnings", len(result.Warnings)), zap.Bool("windowed", window != nil))
	return result
}

func (a *Aggregator) process(user models.User, jobs []models.Job, adjs []models.Adjustment, resolver *rates.Resolver, warnings *warningSet) models.ProcessedTechnician {
	processed := make([]models.ProcessedJob, 0, len(jobs))
	var revenue, jobEarnings money.Cents

	for _, job := range jobs {
		res := resolver.Resolve(job, user)
		if res.Warning != nil {
			warnings.add(*res.Warning)
		}
		earning := res.Rate.Times(job.Quantity)

		pj := models.ProcessedJob{
			JobID:        job.ID,
			WorkOrder:    job.WorkOrder,
			TechnicianID: job.TechnicianID,
			TaskCode:     job.TaskCode,
			Quantity:     job.Quantity,
			Revenue:      job.Revenue,
			Date:         job.Date,
			AerialDrop:   job.AerialDrop,
			AppliedRate:  res.Rate,
			RateSource:   res.Source,
			Earning:      earning,
		}
		if job.RateOverride != nil {
			pj.RateOverride = money.Ptr(*job.RateOverride)
		}
		processed = append(processed, pj)

		revenue += job.Revenue
		jobEarnings += earning
	}

	sort.SliceStable(processed, func(i, j int) bool {
		if !processed[i].Date.Equal(processed[j].Date) {
			return processed[i].Date.Before(processed[j].Date)
		}
		return processed[i].JobID < processed[j].JobID
	})

	adjs = append([]models.Adjustment(nil), adjs...)
	adjustments.SortByDate(adjs)
	var adjTotal money.Cents
	for _, adj := range adjs {
		adjTotal += adj.Amount
	}

	total := jobEarnings + adjTotal
	return models.ProcessedTechnician{
		TechnicianID:    user.ID,
		Name:            user.DisplayName(),
		Role:            user.Role,
		JobCount:        len(processed),
		TotalRevenue:    revenue,
		JobEarnings:     jobEarnings,
		AdjustmentTotal: adjTotal,
		TotalEarnings:   total,
		CompanyMargin:   revenue - total,
		AveragePerJob:   jobEarnings.DivRound(len(processed)),
		Adjustments:     adjs,
		Jobs:            processed,
	}
}

// warningSet keeps warnings in first-seen order, collapsing repeats of the
// same problem for the same user and task.
type warningSet struct {
	seen map[string]bool
	list []models.Warning
}

func newWarningSet() *warningSet {
	return &warningSet{seen: make(map[string]bool)}
}

func (s *warningSet) add(ws ...models.Warning) {
	for _, w := range ws {
		key := strings.Join([]string{string(w.Kind), w.UserID, models.NormalizeTaskCode(w.TaskCode)}, "|")
		if w.Kind == models.WarningUnknownTechnician {
			key += "|" + w.JobID
		}
		if s.seen[key] {
			continue
		}
		s.seen[key] = true
		s.list = append(s.list, w)
	}
}
