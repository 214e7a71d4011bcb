package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"lexiq-backend/internal/assessment"
	"lexiq-backend/internal/metrics"
	"lexiq-backend/internal/model"
	"lexiq-backend/internal/repository"
	"lexiq-backend/pkg/logging"
	"lexiq-backend/utilities"
)

// Evaluation is the outcome of submitting a session.
type Evaluation struct {
	SessionID      uuid.UUID               `json:"session_id"`
	Mode           model.TestMode          `json:"mode"`
	DiagnosedLevel model.EnglishLevel      `json:"diagnosed_level"`
	PreviousLevel  model.EnglishLevel      `json:"previous_level"`
	Score          int                     `json:"score"`
	Passed         *bool                   `json:"passed,omitempty"`
	PerLevel       []assessment.LevelStats `json:"per_level"`
}

type DiagnosisService interface {
	// Evaluate scores the session, completes it and writes the user's new
	// level. Evaluating the same answers again gives the same result.
	Evaluate(ctx context.Context, userID, sessionID uuid.UUID) (*Evaluation, error)
}

type diagnosisService struct {
	repos     repository.Repositories
	evaluator *assessment.Evaluator
	bus       *utilities.EventBus
}

func NewDiagnosisService(repos repository.Repositories, cfg assessment.Config, bus *utilities.EventBus) DiagnosisService {
	return &diagnosisService{repos: repos, evaluator: assessment.NewEvaluator(cfg), bus: bus}
}

func (s *diagnosisService) Evaluate(ctx context.Context, userID, sessionID uuid.UUID) (*Evaluation, error) {
	var out *Evaluation
	err := s.repos.Transaction(ctx, func(tx repository.Repositories) error {
		session, err := tx.Sessions().GetSessionByID(ctx, sessionID)
		if err != nil {
			return lookupError(err, "session")
		}
		if session.UserID != userID {
			return newError(CodeForbidden, nil, "session %s does not belong to the current user", sessionID)
		}

		answers, err := tx.Answers().ListBySession(ctx, sessionID)
		if err != nil {
			return internalError(err, "failed to load answers")
		}
		if len(answers) == 0 {
			return newError(CodeNoAnswers, nil, "no answers found for session %s", sessionID)
		}
		levels, err := questionLevels(ctx, tx.Questions(), answers)
		if err != nil {
			return err
		}
		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return lookupError(err, "user")
		}

		eval := &Evaluation{SessionID: sessionID, Mode: session.Mode, PreviousLevel: user.EnglishLevel}
		if session.Mode == model.ModeUpgrade {
			err = s.evaluateUpgrade(ctx, tx, session, user, answers, levels, eval)
		} else {
			d := s.evaluator.Diagnose(answers, levels)
			eval.DiagnosedLevel = d.Level
			eval.Score = d.Score
			eval.PerLevel = d.PerLevel
			err = tx.Users().UpdateEnglishLevel(ctx, userID, d.Level)
		}
		if err != nil {
			return asServiceError(err, "failed to update user level")
		}

		if err := tx.Sessions().CompleteSession(ctx, sessionID, eval.Score, eval.DiagnosedLevel); err != nil {
			return internalError(err, "failed to complete session")
		}
		out = eval
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Diagnoses.WithLabelValues(string(out.Mode), string(out.DiagnosedLevel)).Inc()
	logger.Info("session %s evaluated: user %s %s -> %s, score %d", sessionID, userID, out.PreviousLevel, out.DiagnosedLevel, out.Score)
	if s.bus != nil && out.PreviousLevel != out.DiagnosedLevel {
		s.bus.Publish(utilities.EventLevelChanged, utilities.LevelChangedEvent{
			UserID:    userID,
			SessionID: sessionID,
			Mode:      string(out.Mode),
			From:      string(out.PreviousLevel),
			To:        string(out.DiagnosedLevel),
			Score:     out.Score,
			At:        time.Now().UTC(),
		})
	}
	return out, nil
}

// evaluateUpgrade only looks at target level answers. A failed attempt
// leaves the user's level untouched.
func (s *diagnosisService) evaluateUpgrade(ctx context.Context, tx repository.Repositories, session *model.EnglishTestSession,
	user *model.User, answers []model.UserAnswer, levels map[uuid.UUID]model.EnglishLevel, eval *Evaluation) error {
	req, err := tx.Upgrades().GetBySession(ctx, session.ID)
	if err != nil {
		return lookupError(err, "upgrade request")
	}

	passed, stats := s.evaluator.Upgrade(answers, levels, req.TargetLevel)
	eval.Passed = &passed
	eval.Score = assessment.Score(answers)
	eval.PerLevel = []assessment.LevelStats{stats}
	eval.DiagnosedLevel = user.EnglishLevel

	if err := tx.Upgrades().MarkEvaluated(ctx, req.ID, passed); err != nil {
		return internalError(err, "failed to update upgrade request")
	}
	if passed {
		eval.DiagnosedLevel = req.TargetLevel
		return tx.Users().UpdateEnglishLevel(ctx, user.ID, req.TargetLevel)
	}
	return nil
}

func questionLevels(ctx context.Context, questions repository.QuestionRepository, answers []model.UserAnswer) (map[uuid.UUID]model.EnglishLevel, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, a := range answers {
		if !seen[a.QuestionID] {
			seen[a.QuestionID] = true
			ids = append(ids, a.QuestionID)
		}
	}
	list, err := questions.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, internalError(err, "failed to load questions")
	}
	levels := make(map[uuid.UUID]model.EnglishLevel, len(list))
	for _, q := range list {
		levels[q.ID] = q.Level
	}
	return levels, nil
}

// asServiceError keeps service errors as they are and wraps anything else.
func asServiceError(err error, message string) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return lookupError(err, "user")
	}
	return internalError(err, message)
}
