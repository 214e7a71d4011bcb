package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lexiq-backend/internal/model"
)

type UpgradeRepository interface {
	CreateUpgrade(ctx context.Context, req *model.LevelUpgradeRequest) error
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.LevelUpgradeRequest, error)
	MarkEvaluated(ctx context.Context, id uuid.UUID, passed bool) error
}

type upgradeRepository struct {
	db *gorm.DB
}

func (r *upgradeRepository) CreateUpgrade(ctx context.Context, req *model.LevelUpgradeRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *upgradeRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.LevelUpgradeRequest, error) {
	var req model.LevelUpgradeRequest
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&req).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *upgradeRepository) MarkEvaluated(ctx context.Context, id uuid.UUID, passed bool) error {
	res := r.db.WithContext(ctx).Model(&model.LevelUpgradeRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"passed": passed, "evaluated": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
