// Package scoring computes lead scores. The Engine is a pure function of a
// lead's attributes and activity history: computing twice on the same inputs
// yields the same score.
package scoring

import (
	"math"
	"strings"
	"time"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	scoreVersion = "2026-v1"

	// fitBase is the starting fit score; profile factors add/subtract from it.
	fitBase = 50.0
)

// Tier is the priority bucket derived from the overall score.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Trend classifies the overall score against the previous snapshot.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Profile carries the static lead attributes the fit score matches against
// the ideal-customer profile.
type Profile struct {
	Industry    string
	CompanySize int
	JobTitle    string
	Interests   []string
}

// ActivityEvent is a single recorded signal against a lead: a logged
// communication, a buying signal, or an engagement event.
type ActivityEvent struct {
	Type       string
	OccurredAt time.Time
}

// Input is everything the engine needs to score a lead.
type Input struct {
	Profile         Profile
	Activity        []ActivityEvent
	LastActivity    time.Time
	PreviousOverall *int
	Now             time.Time
}

// Score is the full scoring output embedded in a lead.
type Score struct {
	Fit      int
	Intent   int
	Behavior int
	Overall  int
	Tier     Tier
	Trend    Trend
	Version  string
}

// Engine computes lead scores from a fixed configuration.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given scoring model.
func NewEngine(cfg Config) *Engine {
	cfg.Normalize()
	return &Engine{cfg: cfg}
}

// Compute derives the full score for a lead. It has no side effects and no
// hidden inputs besides its configuration.
func (e *Engine) Compute(in Input) Score {
	fit := e.computeFit(in.Profile)
	intent := e.computeIntent(in.Activity)
	behavior := e.computeBehavior(in.Activity, in.LastActivity, in.Now)

	overall := clampScore(
		e.cfg.Weights.Fit*float64(fit) +
			e.cfg.Weights.Intent*float64(intent) +
			e.cfg.Weights.Behavior*float64(behavior),
	)

	return Score{
		Fit:      fit,
		Intent:   intent,
		Behavior: behavior,
		Overall:  overall,
		Tier:     e.TierFor(overall),
		Trend:    trendFor(overall, in.PreviousOverall),
		Version:  scoreVersion,
	}
}

// TierFor maps an overall score to its priority tier using the configured
// cut points.
func (e *Engine) TierFor(overall int) Tier {
	switch {
	case overall >= e.cfg.Tiers.A:
		return TierA
	case overall >= e.cfg.Tiers.B:
		return TierB
	case overall >= e.cfg.Tiers.C:
		return TierC
	default:
		return TierD
	}
}

func trendFor(overall int, previous *int) Trend {
	if previous == nil {
		return TrendStable
	}
	switch {
	case overall > *previous:
		return TrendUp
	case overall < *previous:
		return TrendDown
	default:
		return TrendStable
	}
}

// computeFit scores similarity to the ideal-customer profile: industry
// match, company-size bracket and title seniority around a neutral base.
func (e *Engine) computeFit(profile Profile) int {
	score := fitBase

	score += e.scoreIndustry(profile.Industry)
	score += e.scoreCompanySize(profile.CompanySize)
	score += e.scoreTitle(profile.JobTitle)
	score += e.scoreInterests(profile.Interests)

	return clampScore(score)
}

// scoreIndustry rewards leads in the configured target industries.
func (e *Engine) scoreIndustry(industry string) float64 {
	if industry == "" {
		return 0
	}
	normalized := strings.ToLower(strings.TrimSpace(industry))
	for _, target := range e.cfg.Fit.Industries {
		if strings.Contains(normalized, strings.ToLower(target)) {
			return 20
		}
	}
	return -5
}

// scoreCompanySize rewards the configured sweet spot and its neighborhood.
// Unknown sizes are neutral.
func (e *Engine) scoreCompanySize(size int) float64 {
	if size <= 0 {
		return 0
	}
	min := e.cfg.Fit.SizeSweetSpotMin
	max := e.cfg.Fit.SizeSweetSpotMax
	switch {
	case size >= min && size <= max:
		return 15
	case size >= min/2 && size <= max*2:
		return 8
	default:
		return -5
	}
}

// scoreTitle rewards decision-makers over influencers.
func (e *Engine) scoreTitle(title string) float64 {
	if title == "" {
		return 0
	}
	normalized := strings.ToLower(title)
	for _, senior := range e.cfg.Fit.SeniorTitles {
		if strings.Contains(normalized, strings.ToLower(senior)) {
			return 15
		}
	}
	for _, influencer := range e.cfg.Fit.InfluencerTitles {
		if strings.Contains(normalized, strings.ToLower(influencer)) {
			return 8
		}
	}
	return 0
}

// scoreInterests rewards declared interests overlapping the configured ICP
// interests, capped so a long interest list cannot dominate the fit score.
func (e *Engine) scoreInterests(interests []string) float64 {
	matched := 0.0
	for _, interest := range interests {
		normalized := strings.ToLower(strings.TrimSpace(interest))
		for _, target := range e.cfg.Fit.Interests {
			if strings.Contains(normalized, strings.ToLower(target)) {
				matched += 5
				break
			}
		}
	}
	return clampFloat(matched, 0, 10)
}

// computeIntent sums the configured weights of explicit buying signals in
// the activity history, capped and clamped.
func (e *Engine) computeIntent(activity []ActivityEvent) int {
	total := 0.0
	for _, event := range activity {
		if weight, ok := e.cfg.Intent.Events[event.Type]; ok {
			total += weight
		}
	}
	return clampScore(clampFloat(total, 0, e.cfg.Intent.Cap))
}

// computeBehavior scores engagement frequency, then decays the result by the
// age of the last activity: an unengaged lead cools off over time.
func (e *Engine) computeBehavior(activity []ActivityEvent, lastActivity, now time.Time) int {
	frequency := 0.0
	for _, event := range activity {
		if weight, ok := e.cfg.Behavior.Events[event.Type]; ok {
			frequency += weight
		}
	}
	frequency = clampFloat(frequency, 0, e.cfg.Behavior.Cap)

	return clampScore(frequency * recencyDecay(lastActivity, now))
}

// recencyDecay returns the multiplier applied to the behavior frequency
// component based on how long ago the lead was last active.
func recencyDecay(lastActivity, now time.Time) float64 {
	if lastActivity.IsZero() {
		return 0.2
	}
	hours := now.Sub(lastActivity).Hours()
	switch {
	case hours <= 24:
		return 1.0
	case hours <= 72:
		return 0.9
	case hours <= 24*7:
		return 0.75
	case hours <= 24*14:
		return 0.6
	case hours <= 24*30:
		return 0.4
	default:
		return 0.2
	}
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

func clampFloat(value float64, min float64, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
