package assessment

import (
	"errors"
	"fmt"

	"lexiq-backend/internal/model"
)

var (
	ErrLevelNotSet   = errors.New("english level is not set")
	ErrInvalidTarget = errors.New("invalid upgrade target level")
)

// Planner decides how many questions of which levels a session draws.
type Planner struct {
	cfg Config
}

func NewPlanner(cfg Config) *Planner {
	return &Planner{cfg: cfg}
}

// Diagnostic draws a fixed quota from every level so each one is covered.
func (p *Planner) Diagnostic() Plan {
	draws := make([]Draw, 0, len(model.Levels))
	for _, l := range model.Levels {
		draws = append(draws, Draw{Levels: []model.EnglishLevel{l}, N: p.cfg.DiagnosticPerLevel})
	}
	return Plan{
		Mode:         model.ModeDiagnostic,
		SessionLevel: model.LevelUnknown,
		TargetLevels: append([]model.EnglishLevel(nil), model.Levels...),
		Draws:        draws,
	}
}

// Progression draws from current and the level above it. At C2 both
// quotas come from C2.
func (p *Planner) Progression(current model.EnglishLevel) (Plan, error) {
	if !current.Known() {
		return Plan{}, ErrLevelNotSet
	}
	next := current.Next()
	plan := Plan{Mode: model.ModeProgression, SessionLevel: current}
	if next == current {
		plan.TargetLevels = []model.EnglishLevel{current}
		plan.Draws = []Draw{{Levels: []model.EnglishLevel{current}, N: p.cfg.ProgressionCurrent + p.cfg.ProgressionNext}}
		return plan, nil
	}
	plan.TargetLevels = []model.EnglishLevel{current, next}
	plan.Draws = []Draw{
		{Levels: []model.EnglishLevel{current}, N: p.cfg.ProgressionCurrent},
		{Levels: []model.EnglishLevel{next}, N: p.cfg.ProgressionNext},
	}
	return plan, nil
}

// Upgrade draws only from target, which must rank above current.
func (p *Planner) Upgrade(current, target model.EnglishLevel) (Plan, error) {
	if !current.Known() {
		return Plan{}, ErrLevelNotSet
	}
	if !target.Known() {
		return Plan{}, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	if !target.Above(current) {
		return Plan{}, fmt.Errorf("%w: %s is not above %s", ErrInvalidTarget, target, current)
	}
	return Plan{
		Mode:         model.ModeUpgrade,
		SessionLevel: target,
		TargetLevels: []model.EnglishLevel{target},
		Draws:        []Draw{{Levels: []model.EnglishLevel{target}, N: p.cfg.UpgradeQuestions}},
	}, nil
}
