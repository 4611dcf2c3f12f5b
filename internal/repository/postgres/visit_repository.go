package postgres

import (
	"context"
	"luckyEnvelope/domain"

	"gorm.io/gorm"
)

type VisitRepository struct {
	DB *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{
		DB: db,
	}
}

func (r *VisitRepository) Create(ctx context.Context, visit *domain.Visit) error {
	if err := r.DB.WithContext(ctx).Create(visit).Error; err != nil {
		return err
	}

	return nil
}

func (r *VisitRepository) FindLatest(ctx context.Context, limit int) ([]domain.Visit, error) {
	var visits []domain.Visit

	err := r.DB.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&visits).Error
	if err != nil {
		return nil, err
	}

	return visits, nil
}
