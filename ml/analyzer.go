package ml

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/amaanshakeel0998/capsule-medication-tracker/models"
)

const patternWindowDays = 30

// AdherenceSummary aggregates dose outcomes over a history window.
type AdherenceSummary struct {
	AdherenceRate float64 `json:"adherence_rate"`
	TotalDoses    int     `json:"total_doses"`
	Taken         int     `json:"taken"`
	Missed        int     `json:"missed"`
	Delayed       int     `json:"delayed"`
}

// Pattern is one detected behavioral pattern.
type Pattern struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Insight is a user-facing message derived from adherence and patterns.
type Insight struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RiskFactors summarizes heuristic risk signals for one medication.
type RiskFactors struct {
	RiskLevel string   `json:"risk_level"`
	Factors   []string `json:"factors"`
}

// Analyzer computes adherence statistics and rule-based behavior patterns
// from the dose history.
type Analyzer struct {
	store HistoryProvider
}

func NewAnalyzer(store HistoryProvider) *Analyzer {
	return &Analyzer{store: store}
}

// AnalyzeAdherenceRate summarizes the last N days. Delayed doses count as
// adherent. An empty history yields all-zero fields.
func (a *Analyzer) AnalyzeAdherenceRate(days int) (*AdherenceSummary, error) {
	history, err := a.store.GetDoseHistory(days)
	if err != nil {
		return nil, err
	}

	summary := &AdherenceSummary{}
	if len(history) == 0 {
		return summary, nil
	}

	for _, rec := range history {
		switch rec.Status {
		case models.DoseTaken:
			summary.Taken++
		case models.DoseMissed:
			summary.Missed++
		case models.DoseDelayed:
			summary.Delayed++
		}
	}
	summary.TotalDoses = len(history)
	summary.AdherenceRate = round2(float64(summary.Taken+summary.Delayed) /
		float64(summary.TotalDoses) * 100)
	return summary, nil
}

// DetectPatterns evaluates the rule set over a fixed 30-day window,
// optionally filtered to one medication (medicationID 0 means all).
//
// The improving/declining trend always compares the unfiltered 7-day and
// 30-day adherence rates, even when a medication filter is given. That
// coupling is long-standing behavior callers rely on.
func (a *Analyzer) DetectPatterns(medicationID uint) ([]Pattern, error) {
	history, err := a.store.GetDoseHistory(patternWindowDays)
	if err != nil {
		return nil, err
	}
	if medicationID != 0 {
		history = filterByMedication(history, medicationID)
	}

	patterns := []Pattern{}
	if len(history) == 0 {
		return patterns, nil
	}

	// Weekend misses.
	var weekendMisses, weekdayMisses int
	for _, rec := range history {
		if rec.Status != models.DoseMissed {
			continue
		}
		scheduled, err := time.Parse(models.TimeLayout, rec.ScheduledTime)
		if err != nil {
			return nil, fmt.Errorf("%w: scheduled time %q", ErrInvalidTimestamp, rec.ScheduledTime)
		}
		if wd := scheduled.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekendMisses++
		} else {
			weekdayMisses++
		}
	}
	if float64(weekendMisses) > float64(weekdayMisses)*1.5 {
		patterns = append(patterns, Pattern{
			Type:        "weekend_misses",
			Description: "You tend to miss doses on weekends",
			Severity:    "medium",
		})
	}

	// Consistent delays. The average is truncated, not rounded.
	var delaySum, delayCount int
	for _, rec := range history {
		if rec.Status == models.DoseDelayed {
			delaySum += rec.DelayMinutes
			delayCount++
		}
	}
	if delayCount > 5 {
		avgDelay := float64(delaySum) / float64(delayCount)
		if avgDelay > 60 {
			patterns = append(patterns, Pattern{
				Type:        "consistent_delays",
				Description: fmt.Sprintf("Average delay is %d minutes", int(avgDelay)),
				Severity:    "medium",
			})
		}
	}

	// Time slot with the most misses.
	missesByHour := make(map[int]int)
	for _, rec := range history {
		if rec.Status != models.DoseMissed {
			continue
		}
		scheduled, err := time.Parse(models.TimeLayout, rec.ScheduledTime)
		if err != nil {
			return nil, fmt.Errorf("%w: scheduled time %q", ErrInvalidTimestamp, rec.ScheduledTime)
		}
		missesByHour[scheduled.Hour()]++
	}
	worstHour, worstCount := -1, 0
	for hour := 0; hour < 24; hour++ {
		if missesByHour[hour] > worstCount {
			worstHour, worstCount = hour, missesByHour[hour]
		}
	}
	if worstCount >= 3 {
		patterns = append(patterns, Pattern{
			Type:        "time_slot_issue",
			Description: fmt.Sprintf("Most misses occur around %d:00", worstHour),
			Severity:    "high",
		})
	}

	// Trend: 7-day vs 30-day adherence, always unfiltered.
	recent, err := a.AnalyzeAdherenceRate(7)
	if err != nil {
		return nil, err
	}
	older, err := a.AnalyzeAdherenceRate(patternWindowDays)
	if err != nil {
		return nil, err
	}
	switch {
	case recent.AdherenceRate > older.AdherenceRate+10:
		patterns = append(patterns, Pattern{
			Type:        "improving",
			Description: "Your adherence is improving!",
			Severity:    "positive",
		})
	case recent.AdherenceRate < older.AdherenceRate-10:
		patterns = append(patterns, Pattern{
			Type:        "declining",
			Description: "Your adherence is declining",
			Severity:    "high",
		})
	}

	return patterns, nil
}

// GenerateInsights emits one adherence-banded message followed by one info
// insight per detected pattern, in detection order.
func (a *Analyzer) GenerateInsights() ([]Insight, error) {
	adherence, err := a.AnalyzeAdherenceRate(patternWindowDays)
	if err != nil {
		return nil, err
	}
	patterns, err := a.DetectPatterns(0)
	if err != nil {
		return nil, err
	}

	rate := formatRate(adherence.AdherenceRate)
	insights := make([]Insight, 0, len(patterns)+1)
	switch {
	case adherence.AdherenceRate >= 90:
		insights = append(insights, Insight{
			Type:    "success",
			Message: fmt.Sprintf("Excellent adherence! %s%% on track", rate),
		})
	case adherence.AdherenceRate >= 70:
		insights = append(insights, Insight{
			Type:    "warning",
			Message: fmt.Sprintf("Good adherence at %s%%, but room for improvement", rate),
		})
	default:
		insights = append(insights, Insight{
			Type:    "alert",
			Message: fmt.Sprintf("Low adherence at %s%%. Please improve consistency", rate),
		})
	}

	for _, pattern := range patterns {
		insights = append(insights, Insight{Type: "info", Message: pattern.Description})
	}
	return insights, nil
}

// AnalyzeRiskFactors lists heuristic risk signals for one medication over
// the last two weeks.
func (a *Analyzer) AnalyzeRiskFactors(medicationID uint) (*RiskFactors, error) {
	history, err := a.store.GetDoseHistory(14)
	if err != nil {
		return nil, err
	}
	history = filterByMedication(history, medicationID)

	if len(history) < 5 {
		return &RiskFactors{
			RiskLevel: RiskUnknown,
			Factors:   []string{"Not enough data to predict"},
		}, nil
	}

	recent := history
	if len(recent) > 7 {
		recent = recent[:7]
	}

	var factors []string
	var recentMisses, recentDelays int
	for _, rec := range recent {
		switch rec.Status {
		case models.DoseMissed:
			recentMisses++
		case models.DoseDelayed:
			recentDelays++
		}
	}
	if recentMisses >= 2 {
		factors = append(factors, fmt.Sprintf("Missed %d doses in last week", recentMisses))
	}
	if recentDelays >= 3 {
		factors = append(factors, "Frequent delays recently")
	}

	missRate := 0.0
	if len(history) >= 7 {
		missRate = float64(recentMisses) / 7
	}

	level := RiskLow
	switch {
	case missRate > 0.3:
		level = RiskHigh
	case missRate > 0.1:
		level = RiskMedium
	}

	if len(factors) == 0 {
		factors = []string{"Good adherence pattern"}
	}
	return &RiskFactors{RiskLevel: level, Factors: factors}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}
