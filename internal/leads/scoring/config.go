package scoring

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the canonical scoring model: aggregation weights, tier cut
// points, the ideal-customer profile for the fit score, and per-event weights
// for intent and behavior. The source UI used 70/80/90 bands inconsistently;
// this config is the single place the model is defined, loaded once at
// startup and applied uniformly.
type Config struct {
	Weights  AggregationWeights `yaml:"weights"`
	Tiers    TierThresholds     `yaml:"tiers"`
	Fit      FitCriteria        `yaml:"fit"`
	Intent   IntentWeights      `yaml:"intent"`
	Behavior BehaviorWeights    `yaml:"behavior"`
}

// AggregationWeights blend the three sub-scores into the overall score.
// They should sum to 1.0; Normalize rescales them when they do not.
type AggregationWeights struct {
	Fit      float64 `yaml:"fit"`
	Intent   float64 `yaml:"intent"`
	Behavior float64 `yaml:"behavior"`
}

// TierThresholds are the inclusive lower bounds for tiers A, B and C.
// Anything below C is tier D.
type TierThresholds struct {
	A int `yaml:"a"`
	B int `yaml:"b"`
	C int `yaml:"c"`
}

// FitCriteria describe the ideal-customer profile matched by the fit score.
type FitCriteria struct {
	Industries       []string `yaml:"industries"`
	SizeSweetSpotMin int      `yaml:"sizeSweetSpotMin"`
	SizeSweetSpotMax int      `yaml:"sizeSweetSpotMax"`
	SeniorTitles     []string `yaml:"seniorTitles"`
	InfluencerTitles []string `yaml:"influencerTitles"`
	Interests        []string `yaml:"interests"`
}

// IntentWeights map explicit buying signals to point contributions. Later
// funnel actions carry more weight.
type IntentWeights struct {
	Events map[string]float64 `yaml:"events"`
	Cap    float64            `yaml:"cap"`
}

// BehaviorWeights map engagement events to point contributions, with a
// frequency cap and recency decay bands applied to the total.
type BehaviorWeights struct {
	Events map[string]float64 `yaml:"events"`
	Cap    float64            `yaml:"cap"`
}

// DefaultConfig returns the compiled-in scoring model, used when no scoring
// config file is configured.
func DefaultConfig() Config {
	return Config{
		Weights: AggregationWeights{Fit: 0.35, Intent: 0.40, Behavior: 0.25},
		Tiers:   TierThresholds{A: 85, B: 70, C: 50},
		Fit: FitCriteria{
			Industries:       []string{"saas", "software", "fintech", "ecommerce"},
			SizeSweetSpotMin: 50,
			SizeSweetSpotMax: 1000,
			SeniorTitles:     []string{"ceo", "cto", "cfo", "coo", "founder", "vp", "head", "director"},
			InfluencerTitles: []string{"manager", "lead", "principal", "architect"},
			Interests:        []string{"automation", "analytics", "integration"},
		},
		Intent: IntentWeights{
			Events: map[string]float64{
				"demo_request":     35,
				"proposal":         30,
				"pricing_visit":    25,
				"content_download": 12,
				"schedule":         10,
				"webinar":          8,
			},
			Cap: 100,
		},
		Behavior: BehaviorWeights{
			Events: map[string]float64{
				"meeting_held":  16,
				"meet":          16,
				"call_answered": 12,
				"call":          10,
				"email_click":   8,
				"email_open":    4,
				"email":         4,
			},
			Cap: 100,
		},
	}
}

// LoadConfig reads the scoring model from a YAML file, falling back to the
// default model when path is empty. Unknown keys are rejected so a typo in
// the file does not silently revert a weight to zero.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read scoring config: %w", err)
	}

	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse scoring config: %w", err)
	}

	cfg.Normalize()
	return cfg, nil
}

// Normalize rescales aggregation weights to sum to 1.0 and backfills tier
// thresholds that are unset or out of order.
func (c *Config) Normalize() {
	sum := c.Weights.Fit + c.Weights.Intent + c.Weights.Behavior
	if sum > 0 && sum != 1.0 {
		c.Weights.Fit /= sum
		c.Weights.Intent /= sum
		c.Weights.Behavior /= sum
	}
	defaults := DefaultConfig().Tiers
	if c.Tiers.A <= 0 || c.Tiers.A > 100 {
		c.Tiers.A = defaults.A
	}
	if c.Tiers.B <= 0 || c.Tiers.B >= c.Tiers.A {
		c.Tiers.B = defaults.B
	}
	if c.Tiers.C <= 0 || c.Tiers.C >= c.Tiers.B {
		c.Tiers.C = defaults.C
	}
	// Backfilling can still leave the cut points disordered; fall back to the
	// default set rather than apply a nonsensical model.
	if c.Tiers.B >= c.Tiers.A || c.Tiers.C >= c.Tiers.B {
		c.Tiers = defaults
	}
}
