package repository

import (
	"context"
	"errors"

	"recruitdesk/internal/model"

	"gorm.io/gorm"
)

var ErrEmployerNotFound = errors.New("employer not found")

type EmployerRepository struct {
	db *gorm.DB
}

func NewEmployerRepository(db *gorm.DB) *EmployerRepository {
	return &EmployerRepository{db: db}
}

func (r *EmployerRepository) Create(ctx context.Context, employer *model.Employer) error {
	return r.db.WithContext(ctx).Create(employer).Error
}

func (r *EmployerRepository) GetByID(ctx context.Context, id int64) (*model.Employer, error) {
	var employer model.Employer
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&employer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployerNotFound
		}
		return nil, err
	}
	return &employer, nil
}

func (r *EmployerRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Employer{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEmployerNotFound
	}
	return nil
}

func (r *EmployerRepository) SoftDelete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Employer{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEmployerNotFound
	}
	return nil
}

func (r *EmployerRepository) List(ctx context.Context, page, pageSize int) ([]*model.Employer, int64, error) {
	var employers []*model.Employer
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Employer{}).Where("is_deleted = ?", false)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&employers).Error

	return employers, total, err
}
