package domain

import (
	"strings"
	"time"
)

// PromotionScopeBus is the effect scope that applies to bus fares.
const PromotionScopeBus = "bus"

const promotionDateLayout = "2006-01-02"

// Promotion is a time-windowed fare reduction.
type Promotion struct {
	ID           int64
	Name         string
	EffectScope  string
	DateRange    bool
	StartDate    string // YYYY-MM-DD, used when DateRange is set
	EndDate      string
	Weekdays     []string // e.g. "Monday" or "mon", used when DateRange is unset
	IsPercentage bool
	Value        float64
}

// EligibleOn reports whether the promotion applies on the calendar day of t.
// Dates are compared in t's location.
func (p Promotion) EligibleOn(t time.Time) bool {
	if p.DateRange {
		return p.inDateRange(t)
	}
	return p.onWeekday(t.Weekday())
}

func (p Promotion) inDateRange(t time.Time) bool {
	start, err := time.ParseInLocation(promotionDateLayout, p.StartDate, t.Location())
	if err != nil {
		return false
	}
	end, err := time.ParseInLocation(promotionDateLayout, p.EndDate, t.Location())
	if err != nil {
		return false
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return !day.Before(start) && !day.After(end)
}

func (p Promotion) onWeekday(wd time.Weekday) bool {
	name := strings.ToLower(wd.String())
	for _, d := range p.Weekdays {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == name || (len(d) == 3 && strings.HasPrefix(name, d)) {
			return true
		}
	}
	return false
}
