package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lexiq-backend/internal/model"
)

type AnswerRepository interface {
	CreateAnswers(ctx context.Context, answers []*model.UserAnswer) error
	// ListBySession returns answers in submission order.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.UserAnswer, error)
	ListBySessions(ctx context.Context, sessionIDs []uuid.UUID) ([]model.UserAnswer, error)
	// StatsByUser counts all answers and correct answers across the user's sessions.
	StatsByUser(ctx context.Context, userID uuid.UUID) (total int64, correct int64, err error)
}

type answerRepository struct {
	db *gorm.DB
}

func (r *answerRepository) CreateAnswers(ctx context.Context, answers []*model.UserAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(answers).Error
}

func (r *answerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.UserAnswer, error) {
	var answers []model.UserAnswer
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at asc").
		Find(&answers).Error
	return answers, err
}

func (r *answerRepository) ListBySessions(ctx context.Context, sessionIDs []uuid.UUID) ([]model.UserAnswer, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var answers []model.UserAnswer
	err := r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Order("created_at asc").
		Find(&answers).Error
	return answers, err
}

func (r *answerRepository) StatsByUser(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	var row struct {
		Total   int64
		Correct int64
	}
	err := r.db.WithContext(ctx).
		Table("user_answers").
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN user_answers.is_correct THEN 1 ELSE 0 END), 0) AS correct").
		Joins("JOIN english_test_sessions ON english_test_sessions.id = user_answers.session_id").
		Where("english_test_sessions.user_id = ?", userID).
		Scan(&row).Error
	return row.Total, row.Correct, err
}
