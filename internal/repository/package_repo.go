package repository

import (
	"context"
	"errors"

	"recruitdesk/internal/model"

	"gorm.io/gorm"
)

var ErrPackageNotFound = errors.New("package not found")

type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) Create(ctx context.Context, pkg *model.JobPackage) error {
	return r.db.WithContext(ctx).Create(pkg).Error
}

func (r *PackageRepository) GetByID(ctx context.Context, id int64) (*model.JobPackage, error) {
	var pkg model.JobPackage
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *PackageRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.JobPackage{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPackageNotFound
	}
	return nil
}

func (r *PackageRepository) SoftDelete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.JobPackage{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPackageNotFound
	}
	return nil
}

func (r *PackageRepository) List(ctx context.Context, page, pageSize int) ([]*model.JobPackage, int64, error) {
	var packages []*model.JobPackage
	var total int64

	query := r.db.WithContext(ctx).Model(&model.JobPackage{}).Where("is_deleted = ?", false)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&packages).Error

	return packages, total, err
}
