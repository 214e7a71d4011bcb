package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lexiq-backend/internal/model"
)

type VerificationRepository interface {
	CreateVerification(ctx context.Context, v *model.EmailVerification) error
	// LatestPending returns the newest unconsumed, unexpired verification for the user.
	LatestPending(ctx context.Context, userID uuid.UUID, now time.Time) (*model.EmailVerification, error)
	Consume(ctx context.Context, id uuid.UUID) error
}

type verificationRepository struct {
	db *gorm.DB
}

func (r *verificationRepository) CreateVerification(ctx context.Context, v *model.EmailVerification) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *verificationRepository) LatestPending(ctx context.Context, userID uuid.UUID, now time.Time) (*model.EmailVerification, error) {
	var v model.EmailVerification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND consumed = ? AND expires_at > ?", userID, false, now).
		Order("created_at desc").
		First(&v).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *verificationRepository) Consume(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.EmailVerification{}).
		Where("id = ? AND consumed = ?", id, false).
		Update("consumed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
