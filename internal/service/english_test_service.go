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

// GeneratedTest is the response of every generation mode. Questions carry
// their options, drag items and drop targets; answers are withheld.
type GeneratedTest struct {
	SessionID    uuid.UUID            `json:"session_id"`
	Mode         model.TestMode       `json:"mode"`
	TargetLevels []model.EnglishLevel `json:"target_levels"`
	Questions    []model.Question     `json:"questions"`
}

type EnglishTestService interface {
	// SelectLevel lets the user set a level directly, or reset it to unknown.
	SelectLevel(ctx context.Context, userID uuid.UUID, level model.EnglishLevel) (*model.User, error)
	// Generate picks diagnostic mode for unknown users and progression otherwise.
	Generate(ctx context.Context, userID uuid.UUID) (*GeneratedTest, error)
	GenerateDiagnostic(ctx context.Context, userID uuid.UUID) (*GeneratedTest, error)
	GenerateProgression(ctx context.Context, userID uuid.UUID) (*GeneratedTest, error)
	GenerateUpgrade(ctx context.Context, userID uuid.UUID, target model.EnglishLevel) (*GeneratedTest, error)
}

type englishTestService struct {
	repos   repository.Repositories
	planner *assessment.Planner
	bus     *utilities.EventBus
}

func NewEnglishTestService(repos repository.Repositories, cfg assessment.Config, bus *utilities.EventBus) EnglishTestService {
	return &englishTestService{repos: repos, planner: assessment.NewPlanner(cfg), bus: bus}
}

func (s *englishTestService) SelectLevel(ctx context.Context, userID uuid.UUID, level model.EnglishLevel) (*model.User, error) {
	if !level.Valid() {
		return nil, validationError("invalid english level %q", level)
	}
	var user *model.User
	err := s.repos.Transaction(ctx, func(tx repository.Repositories) error {
		if err := tx.Users().UpdateEnglishLevel(ctx, userID, level); err != nil {
			return lookupError(err, "user")
		}
		u, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return lookupError(err, "user")
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("user %s selected level %s", userID, level)
	return user, nil
}

func (s *englishTestService) Generate(ctx context.Context, userID uuid.UUID) (*GeneratedTest, error) {
	return s.generate(ctx, userID, func(u *model.User) (assessment.Plan, error) {
		if !u.EnglishLevel.Known() {
			return s.planner.Diagnostic(), nil
		}
		return s.planner.Progression(u.EnglishLevel)
	})
}

func (s *englishTestService) GenerateDiagnostic(ctx context.Context, userID uuid.UUID) (*GeneratedTest, error) {
	return s.generate(ctx, userID, func(*model.User) (assessment.Plan, error) {
		return s.planner.Diagnostic(), nil
	})
}

func (s *englishTestService) GenerateProgression(ctx context.Context, userID uuid.UUID) (*GeneratedTest, error) {
	return s.generate(ctx, userID, func(u *model.User) (assessment.Plan, error) {
		return s.planner.Progression(u.EnglishLevel)
	})
}

func (s *englishTestService) GenerateUpgrade(ctx context.Context, userID uuid.UUID, target model.EnglishLevel) (*GeneratedTest, error) {
	return s.generate(ctx, userID, func(u *model.User) (assessment.Plan, error) {
		return s.planner.Upgrade(u.EnglishLevel, target)
	})
}

func planError(err error) error {
	switch {
	case errors.Is(err, assessment.ErrLevelNotSet):
		return newError(CodeLevelNotSet, err, "english level is not set, take a diagnostic test first")
	case errors.Is(err, assessment.ErrInvalidTarget):
		return newError(CodeValidation, err, "%s", err.Error())
	}
	return internalError(err, "failed to plan test")
}

// generate creates the session, draws its questions and, for upgrades,
// the upgrade request, all in one transaction.
func (s *englishTestService) generate(ctx context.Context, userID uuid.UUID, planFor func(*model.User) (assessment.Plan, error)) (*GeneratedTest, error) {
	var out *GeneratedTest
	err := s.repos.Transaction(ctx, func(tx repository.Repositories) error {
		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return lookupError(err, "user")
		}
		plan, err := planFor(user)
		if err != nil {
			return planError(err)
		}

		session := &model.EnglishTestSession{UserID: userID, Level: plan.SessionLevel, Mode: plan.Mode}
		if err := tx.Sessions().CreateSession(ctx, session); err != nil {
			return internalError(err, "failed to create session")
		}

		var questions []model.Question
		for _, d := range plan.Draws {
			drawn, err := tx.Questions().RandomByLevels(ctx, d.Levels, d.N)
			if err != nil {
				return internalError(err, "failed to draw questions")
			}
			questions = append(questions, drawn...)
		}
		if len(questions) == 0 {
			return newError(CodeNotFound, nil, "no questions available for levels %v", plan.TargetLevels)
		}

		ids := make([]uuid.UUID, len(questions))
		for i, q := range questions {
			ids[i] = q.ID
		}
		if err := tx.Sessions().AddQuestions(ctx, session.ID, ids); err != nil {
			return internalError(err, "failed to attach questions")
		}
		if err := enrich(ctx, tx.Questions(), questions); err != nil {
			return internalError(err, "failed to load question details")
		}

		if plan.Mode == model.ModeUpgrade {
			req := &model.LevelUpgradeRequest{
				UserID:      userID,
				SessionID:   session.ID,
				FromLevel:   user.EnglishLevel,
				TargetLevel: plan.SessionLevel,
			}
			if err := tx.Upgrades().CreateUpgrade(ctx, req); err != nil {
				return internalError(err, "failed to record upgrade request")
			}
		}

		out = &GeneratedTest{
			SessionID:    session.ID,
			Mode:         plan.Mode,
			TargetLevels: plan.TargetLevels,
			Questions:    questions,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsGenerated.WithLabelValues(string(out.Mode)).Inc()
	logger.Info("generated %s session %s with %d questions for user %s", out.Mode, out.SessionID, len(out.Questions), userID)
	if s.bus != nil {
		s.bus.Publish(utilities.EventSessionCreated, utilities.SessionCreatedEvent{
			UserID:    userID,
			SessionID: out.SessionID,
			Mode:      string(out.Mode),
			Questions: len(out.Questions),
			At:        time.Now().UTC(),
		})
	}
	return out, nil
}

// enrich attaches options to multiple choice questions and items and
// targets to drag and drop questions, using one query per child table.
func enrich(ctx context.Context, questions repository.QuestionRepository, list []model.Question) error {
	var choice, match []uuid.UUID
	for _, q := range list {
		switch q.Type {
		case model.TypeMultipleChoice:
			choice = append(choice, q.ID)
		case model.TypeDragAndDrop:
			match = append(match, q.ID)
		}
	}

	options, err := questions.OptionsFor(ctx, choice)
	if err != nil {
		return err
	}
	items, err := questions.DragItemsFor(ctx, match)
	if err != nil {
		return err
	}
	targets, err := questions.DropTargetsFor(ctx, match)
	if err != nil {
		return err
	}

	optionsBy := make(map[uuid.UUID][]model.Option)
	for _, o := range options {
		optionsBy[o.QuestionID] = append(optionsBy[o.QuestionID], o)
	}
	itemsBy := make(map[uuid.UUID][]model.DragItem)
	for _, it := range items {
		itemsBy[it.QuestionID] = append(itemsBy[it.QuestionID], it)
	}
	targetsBy := make(map[uuid.UUID][]model.DropTarget)
	for _, t := range targets {
		targetsBy[t.QuestionID] = append(targetsBy[t.QuestionID], t)
	}

	for i := range list {
		q := &list[i]
		q.Options = optionsBy[q.ID]
		q.DragItems = itemsBy[q.ID]
		q.DropTargets = targetsBy[q.ID]
	}
	return nil
}
