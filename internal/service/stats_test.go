package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
)

func TestComputeTrend(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		previous int64
		label    string
		want     Trend
	}{
		{
			name:     "zero previous divides by one",
			current:  5,
			previous: 0,
			label:    "week",
			want:     Trend{Direction: TrendUp, Percent: 500, Text: "500% up from previous week"},
		},
		{
			name:     "equal counts",
			current:  10,
			previous: 10,
			label:    "day",
			want:     Trend{Direction: TrendNoChange, Percent: 0, Text: "no change from previous day"},
		},
		{
			name:     "both zero",
			current:  0,
			previous: 0,
			label:    "month",
			want:     Trend{Direction: TrendNoChange, Percent: 0, Text: "no change from previous month"},
		},
		{
			name:     "doubled",
			current:  8,
			previous: 4,
			label:    "week",
			want:     Trend{Direction: TrendUp, Percent: 100, Text: "100% up from previous week"},
		},
		{
			name:     "down with decimal",
			current:  3,
			previous: 8,
			label:    "week",
			want:     Trend{Direction: TrendDown, Percent: 62.5, Text: "62.5% down from previous week"},
		},
		{
			name:     "dropped to zero",
			current:  0,
			previous: 4,
			label:    "day",
			want:     Trend{Direction: TrendDown, Percent: 100, Text: "100% down from previous day"},
		},
		{
			name:     "rounded to one decimal",
			current:  1,
			previous: 3,
			label:    "month",
			want:     Trend{Direction: TrendDown, Percent: 66.7, Text: "66.7% down from previous month"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeTrend(tt.current, tt.previous, tt.label)
			if got != tt.want {
				t.Errorf("computeTrend(%d, %d, %q) = %+v, want %+v", tt.current, tt.previous, tt.label, got, tt.want)
			}
		})
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "wednesday",
			in:   time.Date(2025, 6, 18, 15, 30, 0, 0, time.UTC),
			want: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday belongs to the week before",
			in:   time.Date(2025, 6, 22, 8, 0, 0, 0, time.UTC),
			want: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "monday is its own week start",
			in:   time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := startOfWeek(tt.in); !got.Equal(tt.want) {
				t.Errorf("startOfWeek(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func newTestStatsService(orders *fakeOrderRepo, users *fakeUserRepo, now time.Time) *StatsService {
	s := NewStatsService(orders, users, logging.NewNoOpLogger(), testTracer())
	s.now = func() time.Time { return now }
	return s
}

func seedAssignedOrder(orders *fakeOrderRepo, technicianID primitive.ObjectID, status domain.OrderStatus, history []domain.StatusHistoryEntry, createdAt time.Time) {
	orders.put(&domain.ServiceOrder{
		Status:            status,
		ServiceProviderID: &technicianID,
		StatusHistory:     history,
		CreatedAt:         createdAt,
	})
}

func TestStatusCountsZeroFillsAbsentStatuses(t *testing.T) {
	orders := newFakeOrderRepo()
	technicianID := primitive.NewObjectID()
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

	seedAssignedOrder(orders, technicianID, domain.StatusCompleted, nil, now)
	seedAssignedOrder(orders, technicianID, domain.StatusCompleted, nil, now)
	seedAssignedOrder(orders, technicianID, domain.StatusInProgress, nil, now)

	svc := newTestStatsService(orders, newFakeUserRepo(), now)
	counts, err := svc.StatusCounts(context.Background(), technicianID)
	if err != nil {
		t.Fatalf("StatusCounts() error = %v", err)
	}

	want := StatusCounts{Pending: 0, InProgress: 1, Completed: 2}
	if counts != want {
		t.Errorf("StatusCounts() = %+v, want %+v", counts, want)
	}
}

func TestDashboardBucketsByLatestHistoryEntry(t *testing.T) {
	orders := newFakeOrderRepo()
	technicianID := primitive.NewObjectID()
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	// Two orders went inprogress today, none yesterday
	for i := 0; i < 2; i++ {
		seedAssignedOrder(orders, technicianID, domain.StatusInProgress, []domain.StatusHistoryEntry{
			{Status: domain.StatusPending, Timestamp: yesterday},
			{Status: domain.StatusInProgress, Timestamp: now},
		}, yesterday)
	}

	// One completed today, one completed yesterday
	seedAssignedOrder(orders, technicianID, domain.StatusCompleted, []domain.StatusHistoryEntry{
		{Status: domain.StatusCompleted, Timestamp: now},
	}, yesterday)
	seedAssignedOrder(orders, technicianID, domain.StatusCompleted, []domain.StatusHistoryEntry{
		{Status: domain.StatusCompleted, Timestamp: yesterday},
	}, yesterday)

	svc := newTestStatsService(orders, newFakeUserRepo(), now)
	dashboard, err := svc.Dashboard(context.Background(), technicianID, PeriodToday)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if dashboard.Period != PeriodToday {
		t.Errorf("Period = %q, want %q", dashboard.Period, PeriodToday)
	}
	if dashboard.InProgress.Count != 2 {
		t.Errorf("InProgress.Count = %d, want 2", dashboard.InProgress.Count)
	}
	if got := dashboard.InProgress.Trend; got.Direction != TrendUp || got.Percent != 200 {
		t.Errorf("InProgress.Trend = %+v, want up 200%%", got)
	}
	if dashboard.Completed.Count != 1 {
		t.Errorf("Completed.Count = %d, want 1", dashboard.Completed.Count)
	}
	if got := dashboard.Completed.Trend; got.Direction != TrendNoChange {
		t.Errorf("Completed.Trend = %+v, want no change", got)
	}
	if got := dashboard.Pending.Trend.Text; got != "no change from previous day" {
		t.Errorf("Pending.Trend.Text = %q, want %q", got, "no change from previous day")
	}
}

func TestDashboardRejectsUnknownPeriod(t *testing.T) {
	svc := newTestStatsService(newFakeOrderRepo(), newFakeUserRepo(), time.Now())

	_, err := svc.Dashboard(context.Background(), primitive.NewObjectID(), "quarter")
	if !errors.IsValidation(err) {
		t.Errorf("Dashboard(quarter) error = %v, want validation error", err)
	}
}

func TestMonthlyStatsZeroFillsTwelveMonths(t *testing.T) {
	svc := newTestStatsService(newFakeOrderRepo(), newFakeUserRepo(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	stats, err := svc.MonthlyStats(context.Background(), primitive.NewObjectID(), 2025)
	if err != nil {
		t.Fatalf("MonthlyStats() error = %v", err)
	}

	if len(stats) != 12 {
		t.Fatalf("len(stats) = %d, want 12", len(stats))
	}
	for i, stat := range stats {
		if stat.Month != i+1 {
			t.Errorf("stats[%d].Month = %d, want %d", i, stat.Month, i+1)
		}
		if stat.InProgress != 0 || stat.Completed != 0 {
			t.Errorf("stats[%d] = %+v, want zero counts", i, stat)
		}
	}
}

func TestMonthlyStatsCountsHistoryEntries(t *testing.T) {
	orders := newFakeOrderRepo()
	technicianID := primitive.NewObjectID()
	march := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

	// Accepted in March, completed in April: counts once in each month
	seedAssignedOrder(orders, technicianID, domain.StatusCompleted, []domain.StatusHistoryEntry{
		{Status: domain.StatusPending, Timestamp: march},
		{Status: domain.StatusInProgress, Timestamp: march},
		{Status: domain.StatusCompleted, Timestamp: april},
	}, march)

	svc := newTestStatsService(orders, newFakeUserRepo(), april)
	stats, err := svc.MonthlyStats(context.Background(), technicianID, 2025)
	if err != nil {
		t.Fatalf("MonthlyStats() error = %v", err)
	}

	if stats[2].InProgress != 1 || stats[2].Completed != 0 {
		t.Errorf("March = %+v, want inprogress 1", stats[2])
	}
	if stats[3].InProgress != 0 || stats[3].Completed != 1 {
		t.Errorf("April = %+v, want completed 1", stats[3])
	}
}

func TestPlatformTotals(t *testing.T) {
	orders := newFakeOrderRepo()
	users := newFakeUserRepo()
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

	orders.put(&domain.ServiceOrder{Status: domain.StatusPending, CreatedAt: now})
	orders.put(&domain.ServiceOrder{Status: domain.StatusPending, CreatedAt: now.AddDate(0, -2, 0)})
	// Previous year, excluded
	orders.put(&domain.ServiceOrder{Status: domain.StatusCompleted, CreatedAt: now.AddDate(-1, 0, 0)})

	users.put(&domain.User{Role: domain.RoleTechnician, AdminVerified: domain.VerificationVerified})
	users.put(&domain.User{Role: domain.RoleTechnician, AdminVerified: domain.VerificationVerified})
	users.put(&domain.User{Role: domain.RoleTechnician, AdminVerified: domain.VerificationPending})
	users.put(&domain.User{Role: domain.RoleAdmin})

	svc := newTestStatsService(orders, users, now)
	totals, err := svc.PlatformTotals(context.Background(), 0)
	if err != nil {
		t.Fatalf("PlatformTotals() error = %v", err)
	}

	want := PlatformTotals{Year: 2025, TotalOrders: 2, VerifiedTechnicians: 2, PendingTechnicians: 1}
	if *totals != want {
		t.Errorf("PlatformTotals() = %+v, want %+v", *totals, want)
	}
}

func TestMonthlyPlatformTotalsZeroFills(t *testing.T) {
	orders := newFakeOrderRepo()
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

	orders.put(&domain.ServiceOrder{Status: domain.StatusPending, CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)})
	orders.put(&domain.ServiceOrder{Status: domain.StatusPending, CreatedAt: time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)})

	svc := newTestStatsService(orders, newFakeUserRepo(), now)
	counts, err := svc.MonthlyPlatformTotals(context.Background(), 2025)
	if err != nil {
		t.Fatalf("MonthlyPlatformTotals() error = %v", err)
	}

	if len(counts) != 12 {
		t.Fatalf("len(counts) = %d, want 12", len(counts))
	}
	for i, c := range counts {
		wantOrders := int64(0)
		if c.Month == 2 {
			wantOrders = 2
		}
		if c.Month != i+1 || c.Orders != wantOrders {
			t.Errorf("counts[%d] = %+v, want month %d orders %d", i, c, i+1, wantOrders)
		}
	}
}
