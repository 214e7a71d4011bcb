package assessment

import (
	"lexiq-backend/internal/config"
	"lexiq-backend/internal/model"
)

// Config holds the quotas and the pass threshold of the testing flow.
type Config struct {
	DiagnosticPerLevel int     `json:"diagnostic_per_level"`
	ProgressionCurrent int     `json:"progression_current"`
	ProgressionNext    int     `json:"progression_next"`
	UpgradeQuestions   int     `json:"upgrade_questions"`
	PassThreshold      float64 `json:"pass_threshold"`
}

// DefaultConfig returns 5 questions per level for diagnostics, an 8/7 split
// for progression, 10 upgrade questions and a 0.6 threshold.
func DefaultConfig() Config {
	return Config{
		DiagnosticPerLevel: 5,
		ProgressionCurrent: 8,
		ProgressionNext:    7,
		UpgradeQuestions:   10,
		PassThreshold:      0.6,
	}
}

// FromConfig builds a Config from the ENGLISH_TEST section, falling back to
// defaults for unset values.
func FromConfig(c config.EnglishTestConfig) Config {
	cfg := DefaultConfig()
	if c.DiagnosticPerLevel > 0 {
		cfg.DiagnosticPerLevel = c.DiagnosticPerLevel
	}
	if c.ProgressionCurrent > 0 {
		cfg.ProgressionCurrent = c.ProgressionCurrent
	}
	if c.ProgressionNext > 0 {
		cfg.ProgressionNext = c.ProgressionNext
	}
	if c.UpgradeQuestions > 0 {
		cfg.UpgradeQuestions = c.UpgradeQuestions
	}
	if c.PassThreshold > 0 && c.PassThreshold <= 1 {
		cfg.PassThreshold = c.PassThreshold
	}
	return cfg
}

// LevelStats is the correctness tally of one level.
type LevelStats struct {
	Level   model.EnglishLevel `json:"level"`
	Total   int                `json:"total"`
	Correct int                `json:"correct"`
}

// Accuracy is Correct/Total, or 0 when nothing was attempted.
func (s LevelStats) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// Diagnosis is the outcome of evaluating one session.
type Diagnosis struct {
	Level    model.EnglishLevel `json:"diagnosed_level"`
	Score    int                `json:"score"`
	PerLevel []LevelStats       `json:"per_level"`
}

// Draw is one quota of a generation plan: N random questions from Levels.
type Draw struct {
	Levels []model.EnglishLevel
	N      int
}

// Plan describes which questions a new session needs.
type Plan struct {
	Mode         model.TestMode
	SessionLevel model.EnglishLevel
	TargetLevels []model.EnglishLevel
	Draws        []Draw
}
