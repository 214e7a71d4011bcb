package assessment

import (
	"github.com/google/uuid"

	"lexiq-backend/internal/model"
)

const epsilon = 1e-9

// Evaluator turns recorded answers into a diagnosed level.
type Evaluator struct {
	threshold float64
}

func NewEvaluator(cfg Config) *Evaluator {
	if cfg.PassThreshold <= 0 || cfg.PassThreshold > 1 {
		cfg.PassThreshold = DefaultConfig().PassThreshold
	}
	return &Evaluator{threshold: cfg.PassThreshold}
}

// Threshold is the minimum accuracy for a level to count as achieved.
func (e *Evaluator) Threshold() float64 {
	return e.threshold
}

// Achieved reports whether s was attempted and meets the threshold.
func (e *Evaluator) Achieved(s LevelStats) bool {
	return s.Total > 0 && s.Accuracy()+epsilon >= e.threshold
}

// Latest keeps only the most recent answer per question, preserving the
// order in which questions were first answered.
func Latest(answers []model.UserAnswer) []model.UserAnswer {
	index := make(map[uuid.UUID]int, len(answers))
	out := make([]model.UserAnswer, 0, len(answers))
	for _, a := range answers {
		i, seen := index[a.QuestionID]
		if !seen {
			index[a.QuestionID] = len(out)
			out = append(out, a)
			continue
		}
		if !a.CreatedAt.Before(out[i].CreatedAt) {
			out[i] = a
		}
	}
	return out
}

// Tally returns one entry per level in ascending order. levels maps question
// ids to their level; answers to questions outside it are ignored.
func (e *Evaluator) Tally(answers []model.UserAnswer, levels map[uuid.UUID]model.EnglishLevel) []LevelStats {
	stats := make([]LevelStats, len(model.Levels))
	for i, l := range model.Levels {
		stats[i].Level = l
	}
	for _, a := range Latest(answers) {
		level, ok := levels[a.QuestionID]
		if !ok || !level.Known() {
			continue
		}
		s := &stats[level.Rank()]
		s.Total++
		if a.IsCorrect {
			s.Correct++
		}
	}
	return stats
}

// Diagnose walks the levels from A1 upwards. Levels without attempts are
// skipped, and the first attempted level below the threshold ends the
// walk. The result is the last achieved level, or A1.
func (e *Evaluator) Diagnose(answers []model.UserAnswer, levels map[uuid.UUID]model.EnglishLevel) Diagnosis {
	stats := e.Tally(answers, levels)
	diagnosed := model.LevelA1
	for _, s := range stats {
		if s.Total == 0 {
			continue
		}
		if !e.Achieved(s) {
			break
		}
		diagnosed = s.Level
	}
	return Diagnosis{Level: diagnosed, Score: Score(answers), PerLevel: stats}
}

// Upgrade grades an upgrade attempt on the target level's answers only.
func (e *Evaluator) Upgrade(answers []model.UserAnswer, levels map[uuid.UUID]model.EnglishLevel, target model.EnglishLevel) (bool, LevelStats) {
	if !target.Known() {
		return false, LevelStats{Level: target}
	}
	s := e.Tally(answers, levels)[target.Rank()]
	return e.Achieved(s), s
}

// Score counts correct answers, one per question.
func Score(answers []model.UserAnswer) int {
	n := 0
	for _, a := range Latest(answers) {
		if a.IsCorrect {
			n++
		}
	}
	return n
}
