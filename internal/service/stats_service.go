package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/repository/interfaces"
)

// Dashboard periods
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// StatusCounts is the fixed-shape per-status breakdown; absent statuses are
// zero, never omitted
type StatusCounts struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inprogress"`
	Completed  int64 `json:"completed"`
}

// StatusTrend pairs a current-window count with its trend
type StatusTrend struct {
	Count int64 `json:"count"`
	Trend Trend `json:"trend"`
}

// PeriodDashboard is the technician dashboard for one reporting period
type PeriodDashboard struct {
	Period     string      `json:"period"`
	Pending    StatusTrend `json:"pending"`
	InProgress StatusTrend `json:"inprogress"`
	Completed  StatusTrend `json:"completed"`
}

// MonthlyStat is one month of a technician's yearly activity chart
type MonthlyStat struct {
	Month      int   `json:"month"`
	InProgress int64 `json:"inprogress"`
	Completed  int64 `json:"completed"`
}

// PlatformTotals is the admin overview for one year
type PlatformTotals struct {
	Year                int   `json:"year"`
	TotalOrders         int64 `json:"totalOrders"`
	VerifiedTechnicians int64 `json:"verifiedTechnicians"`
	PendingTechnicians  int64 `json:"pendingTechnicians"`
}

// MonthlyOrderCount is one month of the platform-wide order chart
type MonthlyOrderCount struct {
	Month  int   `json:"month"`
	Orders int64 `json:"orders"`
}

// StatsService computes technician dashboards and platform statistics.
// It never mutates state.
type StatsService struct {
	orders interfaces.OrderRepository
	users  interfaces.UserRepository
	logger logging.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewStatsService creates the statistics service
func NewStatsService(orders interfaces.OrderRepository, users interfaces.UserRepository, logger logging.Logger, tracer trace.Tracer) *StatsService {
	return &StatsService{
		orders: orders,
		users:  users,
		logger: logger,
		tracer: tracer,
		now:    time.Now,
	}
}

// StatusCounts groups the technician's live orders by status
func (s *StatsService) StatusCounts(ctx context.Context, technicianID primitive.ObjectID) (StatusCounts, error) {
	ctx, span := s.tracer.Start(ctx, "StatsService.StatusCounts")
	defer span.End()

	counts, err := s.orders.StatusCounts(ctx, &technicianID)
	if err != nil {
		return StatusCounts{}, err
	}

	return StatusCounts{
		Pending:    counts[domain.StatusPending],
		InProgress: counts[domain.StatusInProgress],
		Completed:  counts[domain.StatusCompleted],
	}, nil
}

// Dashboard computes the technician's period-over-period dashboard. Orders
// are bucketed by their most recent status-history entry, and each status
// carries a trend against the previous window.
func (s *StatsService) Dashboard(ctx context.Context, technicianID primitive.ObjectID, period string) (*PeriodDashboard, error) {
	ctx, span := s.tracer.Start(ctx, "StatsService.Dashboard")
	defer span.End()

	currentStart, previousStart, nextStart, label, err := s.periodWindows(period)
	if err != nil {
		return nil, err
	}

	current, err := s.orders.LatestStatusCountsBetween(ctx, technicianID, currentStart, nextStart)
	if err != nil {
		return nil, err
	}

	previous, err := s.orders.LatestStatusCountsBetween(ctx, technicianID, previousStart, currentStart)
	if err != nil {
		return nil, err
	}

	trendFor := func(status domain.OrderStatus) StatusTrend {
		return StatusTrend{
			Count: current[status],
			Trend: computeTrend(current[status], previous[status], label),
		}
	}

	return &PeriodDashboard{
		Period:     period,
		Pending:    trendFor(domain.StatusPending),
		InProgress: trendFor(domain.StatusInProgress),
		Completed:  trendFor(domain.StatusCompleted),
	}, nil
}

// periodWindows resolves a period name into the current window, the previous
// window start and the label used in trend texts
func (s *StatsService) periodWindows(period string) (currentStart, previousStart, nextStart time.Time, label string, err error) {
	now := s.now()

	switch period {
	case PeriodToday:
		currentStart = startOfDay(now)
		previousStart = currentStart.AddDate(0, 0, -1)
		nextStart = currentStart.AddDate(0, 0, 1)
		label = "day"
	case PeriodWeek:
		currentStart = startOfWeek(now)
		previousStart = currentStart.AddDate(0, 0, -7)
		nextStart = currentStart.AddDate(0, 0, 7)
		label = "week"
	case PeriodMonth:
		currentStart = startOfMonth(now)
		previousStart = currentStart.AddDate(0, -1, 0)
		nextStart = currentStart.AddDate(0, 1, 0)
		label = "month"
	default:
		err = errors.NewValidation("period must be one of: today, week, month")
	}

	return
}

// MonthlyStats returns the technician's yearly activity as exactly 12 months,
// zero-filled for months without activity
func (s *StatsService) MonthlyStats(ctx context.Context, technicianID primitive.ObjectID, year int) ([]MonthlyStat, error) {
	ctx, span := s.tracer.Start(ctx, "StatsService.MonthlyStats")
	defer span.End()

	if year == 0 {
		year = s.now().Year()
	}

	counts, err := s.orders.MonthlyHistoryCounts(ctx, technicianID, year)
	if err != nil {
		return nil, err
	}

	stats := make([]MonthlyStat, 12)
	for i := range stats {
		stats[i] = MonthlyStat{Month: i + 1}
	}
	for _, c := range counts {
		if c.Month < 1 || c.Month > 12 {
			continue
		}
		stats[c.Month-1].InProgress = c.InProgress
		stats[c.Month-1].Completed = c.Completed
	}

	return stats, nil
}

// PlatformTotals counts orders created in the year plus verified and pending
// technicians
func (s *StatsService) PlatformTotals(ctx context.Context, year int) (*PlatformTotals, error) {
	ctx, span := s.tracer.Start(ctx, "StatsService.PlatformTotals")
	defer span.End()

	if year == 0 {
		year = s.now().Year()
	}

	monthly, err := s.orders.MonthlyCreatedCounts(ctx, year)
	if err != nil {
		return nil, err
	}
	var totalOrders int64
	for _, count := range monthly {
		totalOrders += count
	}

	verified, err := s.users.CountTechniciansByVerification(ctx, domain.VerificationVerified)
	if err != nil {
		return nil, err
	}

	pending, err := s.users.CountTechniciansByVerification(ctx, domain.VerificationPending)
	if err != nil {
		return nil, err
	}

	return &PlatformTotals{
		Year:                year,
		TotalOrders:         totalOrders,
		VerifiedTechnicians: verified,
		PendingTechnicians:  pending,
	}, nil
}

// MonthlyPlatformTotals returns platform-wide order creations as exactly 12
// months, zero-filled
func (s *StatsService) MonthlyPlatformTotals(ctx context.Context, year int) ([]MonthlyOrderCount, error) {
	ctx, span := s.tracer.Start(ctx, "StatsService.MonthlyPlatformTotals")
	defer span.End()

	if year == 0 {
		year = s.now().Year()
	}

	monthly, err := s.orders.MonthlyCreatedCounts(ctx, year)
	if err != nil {
		return nil, err
	}

	counts := make([]MonthlyOrderCount, 12)
	for i := range counts {
		counts[i] = MonthlyOrderCount{Month: i + 1, Orders: monthly[i+1]}
	}

	return counts, nil
}
