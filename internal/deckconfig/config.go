// Package deckconfig implements the deck configuration embedded in every
// Deck (spec.md §3, §4.5): scheduler tunables merged three ways — built-in
// defaults, the value stored on the deck, and a caller-supplied patch — then
// validated before persistence.
//
// Grounded on the teacher's embedded-JSON-blob convention for per-deck
// scheduler tuning (chrisbirster-flashcards/storage.go Deck.FSRSParameters)
// and on the richer options shape in chrisbirster-flashcards/collection.go's
// DeckOptions (new/review daily limits, learning steps, graduating
// interval).
package deckconfig

import (
	"encoding/json"

	"github.com/Gxrco/Anki-MCP/internal/domain"
)

// Config is a deck's scheduling configuration (spec.md §3).
type Config struct {
	LearningStepsMins      []int              `json:"learningStepsMins"`
	GraduatingIntervalDays int                `json:"graduatingIntervalDays"`
	EasyBonus              float64            `json:"easyBonus"`
	HardInterval           float64            `json:"hardInterval"`
	LapseStepsMins         []int              `json:"lapseStepsMins"`
	NewPerDay              int                `json:"newPerDay"`
	ReviewsPerDay          int                `json:"reviewsPerDay"`
	MinEase                float64            `json:"minEase"`
	LeechThreshold         int                `json:"leechThreshold"`
	LeechAction            domain.LeechAction `json:"leechAction"`
	FuzzPercent            float64            `json:"fuzzPercent"`
	BurySiblings           bool               `json:"burySiblings"`
}

// Patch is Config with every field optional, used for config_set (§4.5).
type Patch struct {
	LearningStepsMins      []int               `json:"learningStepsMins,omitempty"`
	GraduatingIntervalDays *int                `json:"graduatingIntervalDays,omitempty"`
	EasyBonus              *float64            `json:"easyBonus,omitempty"`
	HardInterval           *float64            `json:"hardInterval,omitempty"`
	LapseStepsMins         []int               `json:"lapseStepsMins,omitempty"`
	NewPerDay              *int                `json:"newPerDay,omitempty"`
	ReviewsPerDay          *int                `json:"reviewsPerDay,omitempty"`
	MinEase                *float64            `json:"minEase,omitempty"`
	LeechThreshold         *int                `json:"leechThreshold,omitempty"`
	LeechAction            *domain.LeechAction `json:"leechAction,omitempty"`
	FuzzPercent            *float64            `json:"fuzzPercent,omitempty"`
	BurySiblings           *bool               `json:"burySiblings,omitempty"`
}

// Defaults returns the built-in baseline configuration.
func Defaults() Config {
	return Config{
		LearningStepsMins:      []int{1, 10},
		GraduatingIntervalDays: 1,
		EasyBonus:              1.3,
		HardInterval:           1.2,
		LapseStepsMins:         []int{10},
		NewPerDay:              20,
		ReviewsPerDay:          200,
		MinEase:                1.3,
		LeechThreshold:         8,
		LeechAction:            domain.LeechSuspend,
		FuzzPercent:            0.05,
		BurySiblings:           true,
	}
}

// Merge applies a patch on top of a base configuration, field by field.
func Merge(base Config, patch Patch) Config {
	out := base
	if patch.LearningStepsMins != nil {
		out.LearningStepsMins = patch.LearningStepsMins
	}
	if patch.GraduatingIntervalDays != nil {
		out.GraduatingIntervalDays = *patch.GraduatingIntervalDays
	}
	if patch.EasyBonus != nil {
		out.EasyBonus = *patch.EasyBonus
	}
	if patch.HardInterval != nil {
		out.HardInterval = *patch.HardInterval
	}
	if patch.LapseStepsMins != nil {
		out.LapseStepsMins = patch.LapseStepsMins
	}
	if patch.NewPerDay != nil {
		out.NewPerDay = *patch.NewPerDay
	}
	if patch.ReviewsPerDay != nil {
		out.ReviewsPerDay = *patch.ReviewsPerDay
	}
	if patch.MinEase != nil {
		out.MinEase = *patch.MinEase
	}
	if patch.LeechThreshold != nil {
		out.LeechThreshold = *patch.LeechThreshold
	}
	if patch.LeechAction != nil {
		out.LeechAction = *patch.LeechAction
	}
	if patch.FuzzPercent != nil {
		out.FuzzPercent = *patch.FuzzPercent
	}
	if patch.BurySiblings != nil {
		out.BurySiblings = *patch.BurySiblings
	}
	return out
}

// Validate checks every range/shape constraint from spec.md §3 and returns a
// ValidationError naming every failed field, or nil if c is valid.
func Validate(c Config) error {
	verr := domain.NewValidationError()

	if len(c.LearningStepsMins) == 0 {
		verr.Add("learningStepsMins", "must be non-empty")
	}
	if c.GraduatingIntervalDays <= 0 {
		verr.Add("graduatingIntervalDays", "must be > 0")
	}
	if c.EasyBonus < 1.0 {
		verr.Add("easyBonus", "must be >= 1.0")
	}
	if c.HardInterval < 1.0 {
		verr.Add("hardInterval", "must be >= 1.0")
	}
	if len(c.LapseStepsMins) == 0 {
		verr.Add("lapseStepsMins", "must be non-empty")
	}
	if c.NewPerDay < 0 {
		verr.Add("newPerDay", "must be >= 0")
	}
	if c.ReviewsPerDay < 0 {
		verr.Add("reviewsPerDay", "must be >= 0")
	}
	if c.MinEase < 1.3 {
		verr.Add("minEase", "must be >= 1.3")
	}
	if c.LeechThreshold < 1 {
		verr.Add("leechThreshold", "must be >= 1")
	}
	if !c.LeechAction.Valid() {
		verr.Add("leechAction", "must be 'suspend' or 'tag'")
	}
	if c.FuzzPercent < 0 || c.FuzzPercent > 0.5 {
		verr.Add("fuzzPercent", "must be in [0, 0.5]")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Marshal/Unmarshal serialize Config to/from the config_json storage column.
func Marshal(c Config) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func Unmarshal(s string) (Config, error) {
	if s == "" {
		return Defaults(), nil
	}
	var c Config
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
