package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lexiq-backend/internal/model"
)

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.EnglishTestSession) error
	AddQuestions(ctx context.Context, sessionID uuid.UUID, questionIDs []uuid.UUID) error
	GetSessionByID(ctx context.Context, id uuid.UUID) (*model.EnglishTestSession, error)
	QuestionIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error)
	// CompleteSession writes the evaluation result and marks the session completed.
	CompleteSession(ctx context.Context, id uuid.UUID, score int, diagnosed model.EnglishLevel) error
	// ListCompletedByUser returns completed sessions, newest first.
	ListCompletedByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.EnglishTestSession, error)
	// FirstCompletedByUser returns the oldest completed session.
	FirstCompletedByUser(ctx context.Context, userID uuid.UUID) (*model.EnglishTestSession, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) CreateSession(ctx context.Context, session *model.EnglishTestSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) AddQuestions(ctx context.Context, sessionID uuid.UUID, questionIDs []uuid.UUID) error {
	if len(questionIDs) == 0 {
		return nil
	}
	rows := make([]model.SessionQuestion, len(questionIDs))
	for i, id := range questionIDs {
		rows[i] = model.SessionQuestion{SessionID: sessionID, QuestionID: id, Position: i}
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *sessionRepository) GetSessionByID(ctx context.Context, id uuid.UUID) (*model.EnglishTestSession, error) {
	var session model.EnglishTestSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

func (r *sessionRepository) QuestionIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.SessionQuestion{}).
		Where("session_id = ?", sessionID).
		Order("position").
		Pluck("question_id", &ids).Error
	return ids, err
}

func (r *sessionRepository) CompleteSession(ctx context.Context, id uuid.UUID, score int, diagnosed model.EnglishLevel) error {
	res := r.db.WithContext(ctx).Model(&model.EnglishTestSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":           score,
			"completed":       true,
			"diagnosed_level": diagnosed,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepository) ListCompletedByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.EnglishTestSession, error) {
	var sessions []model.EnglishTestSession
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ?", userID, true).
		Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) FirstCompletedByUser(ctx context.Context, userID uuid.UUID) (*model.EnglishTestSession, error) {
	var session model.EnglishTestSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ?", userID, true).
		Order("created_at asc").
		First(&session).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}
