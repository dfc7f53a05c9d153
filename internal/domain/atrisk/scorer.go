// Package atrisk computes on-demand risk assessments for active clients.
// Nothing here is persisted; every request recomputes scores from the
// client's session history.
package atrisk

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/practicehub/practicehub/internal/domain/session"
)

// Scoring rule points and thresholds. Each rule contributes either zero or
// its fixed point value; the level cutoffs apply to the summed total.
const (
	RecentWindowDays = 30
	SessionGapDays   = 21

	MinCancellations   = 2
	LowRatingThreshold = 5
	DecliningDelta     = 1.0

	PointsCancellations  = 30
	PointsNoShows        = 30
	PointsDecliningTrend = 25
	PointsSessionGap     = 30
	PointsLowScores      = 15

	ThresholdHigh   = 50
	ThresholdMedium = 25
)

const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Assessment is the computed risk picture for one client.
type Assessment struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	RiskScore          int        `json:"riskScore"`
	RiskLevel          string     `json:"riskLevel"`
	RiskFactors        []string   `json:"riskFactors"`
	LastSessionDate    *time.Time `json:"lastSessionDate"`
	RecentSessionCount int        `json:"recentSessionCount"`
	CancellationRate   int        `json:"cancellationRate"`
}

// Score evaluates every scoring rule against the client's session history at
// the given instant. It is a pure function: same sessions and same now always
// produce the same assessment. Rules are evaluated independently and their
// factors appear in evaluation order.
func Score(sessions []session.Session, now time.Time) Assessment {
	a := Assessment{
		RiskFactors: []string{},
	}

	windowStart := now.AddDate(0, 0, -RecentWindowDays)
	var recent []session.Session
	for _, s := range sessions {
		if !s.SessionDate.Before(windowStart) {
			recent = append(recent, s)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].SessionDate.After(recent[j].SessionDate)
	})

	// Rule: repeated cancellations inside the window.
	recentCancellations := 0
	for _, s := range recent {
		if s.Status == session.StatusCancelled {
			recentCancellations++
		}
	}
	if recentCancellations >= MinCancellations {
		a.RiskScore += PointsCancellations
		a.RiskFactors = append(a.RiskFactors,
			fmt.Sprintf("%d cancellations in last 30 days", recentCancellations))
	}

	// Rule: any no-show inside the window.
	recentNoShows := 0
	for _, s := range recent {
		if s.Status == session.StatusNoShow {
			recentNoShows++
		}
	}
	if recentNoShows >= 1 {
		a.RiskScore += PointsNoShows
		a.RiskFactors = append(a.RiskFactors,
			fmt.Sprintf("%d no-show(s) in last 30 days", recentNoShows))
	}

	// Completed sessions with both ratings, full history, newest first.
	// Shared by the declining-trend and low-scores rules.
	var rated []session.Session
	for _, s := range sessions {
		if s.Status == session.StatusCompleted && s.MoodRating != nil && s.ProgressRating != nil {
			rated = append(rated, s)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool {
		return rated[i].SessionDate.After(rated[j].SessionDate)
	})

	// Rule: combined mood+progress average dropping against the prior pair.
	if len(rated) >= 3 {
		newest := rated[:2]
		older := rated[2:min(4, len(rated))]
		if len(older) > 0 {
			recentAvg := combinedAverage(newest)
			olderAvg := combinedAverage(older)
			if recentAvg < olderAvg-DecliningDelta {
				a.RiskScore += PointsDecliningTrend
				a.RiskFactors = append(a.RiskFactors, "Declining mood/progress scores")
			}
		}
	}

	// Rule: too long since the last completed session. Ratings are not
	// required here, only completion.
	var lastCompleted *session.Session
	for i := range sessions {
		s := &sessions[i]
		if s.Status != session.StatusCompleted {
			continue
		}
		if lastCompleted == nil || s.SessionDate.After(lastCompleted.SessionDate) {
			lastCompleted = s
		}
	}
	if lastCompleted != nil {
		a.LastSessionDate = &lastCompleted.SessionDate
		daysSince := int(math.Floor(now.Sub(lastCompleted.SessionDate).Hours() / 24))
		if daysSince > SessionGapDays {
			a.RiskScore += PointsSessionGap
			a.RiskFactors = append(a.RiskFactors,
				fmt.Sprintf("No session in %d days", daysSince))
		}
	}

	// Rule: either of the two most recent rated sessions scored low.
	if len(rated) > 0 {
		checked := rated[:min(2, len(rated))]
		for _, s := range checked {
			if *s.MoodRating < LowRatingThreshold || *s.ProgressRating < LowRatingThreshold {
				a.RiskScore += PointsLowScores
				a.RiskFactors = append(a.RiskFactors, "Recent low mood/progress scores")
				break
			}
		}
	}

	a.RiskLevel = levelFor(a.RiskScore)
	a.RecentSessionCount = len(recent)
	if len(recent) > 0 {
		a.CancellationRate = int(math.Round(float64(recentCancellations) / float64(len(recent)) * 100))
	}
	return a
}

func combinedAverage(sessions []session.Session) float64 {
	var sum, n float64
	for _, s := range sessions {
		sum += float64(*s.MoodRating + *s.ProgressRating)
		n++
	}
	return sum / n
}

func levelFor(score int) string {
	switch {
	case score >= ThresholdHigh:
		return LevelHigh
	case score >= ThresholdMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}
