package service

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Trend directions
const (
	TrendUp       = "up"
	TrendDown     = "down"
	TrendNoChange = "no_change"
)

// Trend is a period-over-period change for dashboard display
type Trend struct {
	Direction string  `json:"direction"`
	Percent   float64 `json:"percent"`
	Text      string  `json:"text"`
}

// computeTrend compares the current window against the previous one. A zero
// previous count divides by 1 instead, so the raw percent becomes 100*current;
// that quirk is load-bearing for existing dashboard consumers.
func computeTrend(current, previous int64, periodLabel string) Trend {
	denom := previous
	if denom == 0 {
		denom = 1
	}

	raw := float64(current-previous) / float64(denom) * 100
	percent := math.Round(raw*10) / 10

	switch {
	case percent > 0:
		return Trend{
			Direction: TrendUp,
			Percent:   percent,
			Text:      fmt.Sprintf("%s%% up from previous %s", formatPercent(percent), periodLabel),
		}
	case percent < 0:
		return Trend{
			Direction: TrendDown,
			Percent:   -percent,
			Text:      fmt.Sprintf("%s%% down from previous %s", formatPercent(-percent), periodLabel),
		}
	default:
		return Trend{
			Direction: TrendNoChange,
			Percent:   0,
			Text:      fmt.Sprintf("no change from previous %s", periodLabel),
		}
	}
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// startOfDay returns midnight of t's day
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns Monday 00:00 of t's ISO week
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday closes the ISO week
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// startOfMonth returns the first of t's calendar month
func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
