package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"lexiq-backend/internal/model"
	"lexiq-backend/internal/repository"
)

// ProgressSnapshot describes one completed session.
type ProgressSnapshot struct {
	SessionID uuid.UUID          `json:"session_id"`
	Mode      model.TestMode     `json:"mode"`
	Level     model.EnglishLevel `json:"level"`
	Score     int                `json:"score"`
}

// ProgressData holds the metrics for the progress report.
type ProgressData struct {
	InitialProgress ProgressSnapshot   `json:"initial_progress"`
	CurrentProgress ProgressSnapshot   `json:"current_progress"`
	CurrentLevel    model.EnglishLevel `json:"current_level"`
	LevelsGained    int                `json:"levels_gained"`
	Improvement     int                `json:"improvement"`
	TotalAnswers    int64              `json:"total_answers"`
	CorrectAnswers  int64              `json:"correct_answers"`
	Accuracy        float64            `json:"accuracy"`
}

type ProgressService interface {
	GenerateProgressData(ctx context.Context, userID uuid.UUID) (*ProgressData, error)
}

type progressService struct {
	repos repository.Repositories
}

func NewProgressService(repos repository.Repositories) ProgressService {
	return &progressService{repos: repos}
}

// GenerateProgressData compares the first and the latest completed session.
func (s *progressService) GenerateProgressData(ctx context.Context, userID uuid.UUID) (*ProgressData, error) {
	user, err := s.repos.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "user")
	}

	initial, err := s.repos.Sessions().FirstCompletedByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(CodeNotFound, err, "no completed tests yet")
		}
		return nil, internalError(err, "failed to get initial session")
	}
	latest, err := s.repos.Sessions().ListCompletedByUser(ctx, userID, 1)
	if err != nil || len(latest) == 0 {
		return nil, internalError(err, "failed to get latest session")
	}

	total, correct, err := s.repos.Answers().StatsByUser(ctx, userID)
	if err != nil {
		return nil, internalError(err, "failed to count answers")
	}
	var accuracy float64
	if total > 0 {
		accuracy = float64(correct) / float64(total) * 100
	}

	first, last := snapshot(*initial), snapshot(latest[0])
	data := &ProgressData{
		InitialProgress: first,
		CurrentProgress: last,
		CurrentLevel:    user.EnglishLevel,
		Improvement:     last.Score - first.Score,
		TotalAnswers:    total,
		CorrectAnswers:  correct,
		Accuracy:        accuracy,
	}
	if first.Level.Known() && last.Level.Known() {
		data.LevelsGained = last.Level.Rank() - first.Level.Rank()
	}
	return data, nil
}

func snapshot(s model.EnglishTestSession) ProgressSnapshot {
	level := s.Level
	if s.DiagnosedLevel != nil {
		level = *s.DiagnosedLevel
	}
	return ProgressSnapshot{SessionID: s.ID, Mode: s.Mode, Level: level, Score: s.Score}
}
