package handlers

import (
	"net/http"
	"strconv"

	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/service"
)

// StatsHandler exposes technician dashboards and platform statistics
type StatsHandler struct {
	stats  *service.StatsService
	logger logging.Logger
}

// NewStatsHandler creates the stats handler
func NewStatsHandler(stats *service.StatsService, logger logging.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// MyCounts handles GET /technicians/me/orders/counts
func (h *StatsHandler) MyCounts(w http.ResponseWriter, r *http.Request) {
	technicianID, ok := callerID(w, r)
	if !ok {
		return
	}

	counts, err := h.stats.StatusCounts(r.Context(), technicianID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, counts)
}

// MyDashboard handles GET /technicians/me/dashboard?period=today|week|month
func (h *StatsHandler) MyDashboard(w http.ResponseWriter, r *http.Request) {
	technicianID, ok := callerID(w, r)
	if !ok {
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = service.PeriodToday
	}

	dashboard, err := h.stats.Dashboard(r.Context(), technicianID, period)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, dashboard)
}

// MyMonthlyStats handles GET /technicians/me/stats/monthly?year=
func (h *StatsHandler) MyMonthlyStats(w http.ResponseWriter, r *http.Request) {
	technicianID, ok := callerID(w, r)
	if !ok {
		return
	}

	stats, err := h.stats.MonthlyStats(r.Context(), technicianID, yearParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, stats)
}

// PlatformTotals handles GET /stats/totals?year=
func (h *StatsHandler) PlatformTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.stats.PlatformTotals(r.Context(), yearParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, totals)
}

// MonthlyPlatformTotals handles GET /stats/monthly?year=
func (h *StatsHandler) MonthlyPlatformTotals(w http.ResponseWriter, r *http.Request) {
	counts, err := h.stats.MonthlyPlatformTotals(r.Context(), yearParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, counts)
}

// yearParam parses ?year=, zero meaning "current year"
func yearParam(r *http.Request) int {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 0 {
		return 0
	}
	return year
}
