package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lexiq-backend/internal/db/query"
	"lexiq-backend/internal/model"
)

// QuestionRepository is the read surface of the question bank plus the
// seeding entry point.
type QuestionRepository interface {
	CreateQuestion(ctx context.Context, question *model.Question) error
	// RandomByLevels returns up to n questions whose level is in levels, in
	// uniformly random order. Fewer matches than n yields all matches.
	RandomByLevels(ctx context.Context, levels []model.EnglishLevel, n int) ([]model.Question, error)
	GetQuestionsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)
	OptionsFor(ctx context.Context, questionIDs []uuid.UUID) ([]model.Option, error)
	DragItemsFor(ctx context.Context, questionIDs []uuid.UUID) ([]model.DragItem, error)
	DropTargetsFor(ctx context.Context, questionIDs []uuid.UUID) ([]model.DropTarget, error)
	CountByLevel(ctx context.Context) (map[model.EnglishLevel]int64, error)
}

type questionRepository struct {
	db *gorm.DB
}

// CreateQuestion inserts the question together with its options, drag
// items and drop targets.
func (r *questionRepository) CreateQuestion(ctx context.Context, question *model.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) RandomByLevels(ctx context.Context, levels []model.EnglishLevel, n int) ([]model.Question, error) {
	if n <= 0 {
		return nil, nil
	}
	values := make([]interface{}, len(levels))
	for i, l := range levels {
		values[i] = string(l)
	}
	sql, args := query.NewQueryBuilder().
		From("questions").
		WhereIn("level", values...).
		OrderByRandom().
		Limit(n).
		Build()

	var questions []model.Question
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) GetQuestionsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var questions []model.Question
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func (r *questionRepository) OptionsFor(ctx context.Context, questionIDs []uuid.UUID) ([]model.Option, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	var options []model.Option
	err := r.db.WithContext(ctx).Where("question_id IN ?", questionIDs).Find(&options).Error
	return options, err
}

func (r *questionRepository) DragItemsFor(ctx context.Context, questionIDs []uuid.UUID) ([]model.DragItem, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	var items []model.DragItem
	err := r.db.WithContext(ctx).Where("question_id IN ?", questionIDs).Find(&items).Error
	return items, err
}

func (r *questionRepository) DropTargetsFor(ctx context.Context, questionIDs []uuid.UUID) ([]model.DropTarget, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	var targets []model.DropTarget
	err := r.db.WithContext(ctx).Where("question_id IN ?", questionIDs).Find(&targets).Error
	return targets, err
}

func (r *questionRepository) CountByLevel(ctx context.Context) (map[model.EnglishLevel]int64, error) {
	var rows []struct {
		Level model.EnglishLevel
		Total int64
	}
	err := r.db.WithContext(ctx).Model(&model.Question{}).
		Select("level, COUNT(*) AS total").
		Group("level").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.EnglishLevel]int64, len(rows))
	for _, row := range rows {
		counts[row.Level] = row.Total
	}
	return counts, nil
}
