package service

import (
	"context"

	"recruitdesk/internal/model"
	"recruitdesk/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DirectoryService covers the supporting reference entities: employers and
// job packages. Role gating happens at the router via the capability table;
// there is no per-row ownership on these.
type DirectoryService struct {
	employerRepo *repository.EmployerRepository
	packageRepo  *repository.PackageRepository
}

func NewDirectoryService(db *gorm.DB) *DirectoryService {
	return &DirectoryService{
		employerRepo: repository.NewEmployerRepository(db),
		packageRepo:  repository.NewPackageRepository(db),
	}
}

func (s *DirectoryService) CreateEmployer(ctx context.Context, employer *model.Employer) error {
	return s.employerRepo.Create(ctx, employer)
}

func (s *DirectoryService) GetEmployer(ctx context.Context, id int64) (*model.Employer, error) {
	return s.employerRepo.GetByID(ctx, id)
}

func (s *DirectoryService) UpdateEmployer(ctx context.Context, id int64, fields map[string]interface{}) error {
	return s.employerRepo.Update(ctx, id, fields)
}

func (s *DirectoryService) DeleteEmployer(ctx context.Context, id int64) error {
	return s.employerRepo.SoftDelete(ctx, id)
}

func (s *DirectoryService) ListEmployers(ctx context.Context, page, pageSize int) ([]*model.Employer, int64, error) {
	return s.employerRepo.List(ctx, page, pageSize)
}

func (s *DirectoryService) CreatePackage(ctx context.Context, pkg *model.JobPackage) error {
	if pkg.Amount.LessThan(decimal.Zero) {
		return ErrInvalidAmount
	}
	return s.packageRepo.Create(ctx, pkg)
}

func (s *DirectoryService) GetPackage(ctx context.Context, id int64) (*model.JobPackage, error) {
	return s.packageRepo.GetByID(ctx, id)
}

func (s *DirectoryService) UpdatePackage(ctx context.Context, id int64, fields map[string]interface{}) error {
	return s.packageRepo.Update(ctx, id, fields)
}

func (s *DirectoryService) DeletePackage(ctx context.Context, id int64) error {
	return s.packageRepo.SoftDelete(ctx, id)
}

func (s *DirectoryService) ListPackages(ctx context.Context, page, pageSize int) ([]*model.JobPackage, int64, error) {
	return s.packageRepo.List(ctx, page, pageSize)
}
