package service

import (
	"context"
	"fmt"

	"recruitdesk/internal/authz"
	"recruitdesk/internal/config"
	"recruitdesk/internal/model"
	"recruitdesk/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CandidateService struct {
	db            *gorm.DB
	cfg           *config.Config
	log           *zap.Logger
	candidateRepo *repository.CandidateRepository
	packageRepo   *repository.PackageRepository
}

func NewCandidateService(db *gorm.DB, cfg *config.Config, log *zap.Logger) *CandidateService {
	return &CandidateService{
		db:            db,
		cfg:           cfg,
		log:           log,
		candidateRepo: repository.NewCandidateRepository(db),
		packageRepo:   repository.NewPackageRepository(db),
	}
}

type CreateCandidateRequest struct {
	Name          string
	PassportNo    string
	Phone         string
	Email         string
	Address       string
	City          string
	Country       string
	AgentID       *int64
	EmployerID    *int64
	PackageID     *int64
	PackageAmount decimal.Decimal
}

// CreateCandidate opens the financial snapshot at total_paid = 0 and
// due_amount = package_amount. Agents always own the candidates they create;
// other roles may assign any agent.
func (s *CandidateService) CreateCandidate(ctx context.Context, principal authz.Principal, req *CreateCandidateRequest) (*model.Candidate, error) {
	if !authz.Can(principal.Role, authz.OpCandidateWrite) {
		return nil, ErrForbidden
	}

	agentID := req.AgentID
	if principal.Role == authz.RoleAgent {
		self := principal.UserID
		agentID = &self
	}

	packageAmount := req.PackageAmount
	if req.PackageID != nil {
		pkg, err := s.packageRepo.GetByID(ctx, *req.PackageID)
		if err != nil {
			return nil, err
		}
		packageAmount = pkg.Amount
	}
	if packageAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	candidate := &model.Candidate{
		Name:          req.Name,
		PassportNo:    req.PassportNo,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		AgentID:       agentID,
		EmployerID:    req.EmployerID,
		PackageID:     req.PackageID,
		PackageAmount: packageAmount,
		TotalPaid:     decimal.Zero,
		DueAmount:     packageAmount,
		Status:        model.CandidateStatusNew,
	}

	if err := s.candidateRepo.Create(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}

	s.log.Info("candidate created",
		zap.Int64("candidate_id", candidate.ID),
		zap.Int64("created_by", principal.UserID),
	)

	return candidate, nil
}

func (s *CandidateService) GetCandidate(ctx context.Context, principal authz.Principal, id int64) (*model.Candidate, error) {
	candidate, err := s.candidateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccessCandidate(principal, authz.OpCandidateRead, candidate.AgentID) {
		return nil, ErrForbidden
	}
	return candidate, nil
}

type UpdateCandidateRequest struct {
	Name          *string
	PassportNo    *string
	Phone         *string
	Email         *string
	Address       *string
	City          *string
	Country       *string
	Status        *string
	EmployerID    *int64
	PackageAmount *decimal.Decimal
}

// UpdateCandidate applies identity/status edits. A package_amount change goes
// through SetPackageAmount so the due recompute stays in one place.
func (s *CandidateService) UpdateCandidate(ctx context.Context, principal authz.Principal, id int64, req *UpdateCandidateRequest) error {
	candidate, err := s.candidateRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanAccessCandidate(principal, authz.OpCandidateWrite, candidate.AgentID) {
		return ErrForbidden
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.PassportNo != nil {
		fields["passport_no"] = *req.PassportNo
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if req.City != nil {
		fields["city"] = *req.City
	}
	if req.Country != nil {
		fields["country"] = *req.Country
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.EmployerID != nil {
		fields["employer_id"] = *req.EmployerID
	}

	if len(fields) > 0 {
		if err := s.candidateRepo.Update(ctx, id, fields); err != nil {
			return err
		}
	}

	if req.PackageAmount != nil {
		if req.PackageAmount.IsNegative() {
			return ErrInvalidAmount
		}
		if err := s.candidateRepo.SetPackageAmount(ctx, nil, id, *req.PackageAmount); err != nil {
			return err
		}
	}

	return nil
}

func (s *CandidateService) DeleteCandidate(ctx context.Context, principal authz.Principal, id int64) error {
	if !authz.Can(principal.Role, authz.OpCandidateDelete) {
		return ErrForbidden
	}
	return s.candidateRepo.SoftDelete(ctx, id)
}

// ListCandidates applies role-scoped visibility: agents see only their own.
func (s *CandidateService) ListCandidates(ctx context.Context, principal authz.Principal, page, pageSize int) ([]*model.Candidate, int64, error) {
	if !authz.Can(principal.Role, authz.OpCandidateRead) {
		return nil, 0, ErrForbidden
	}

	var agentFilter *int64
	if principal.Role == authz.RoleAgent {
		self := principal.UserID
		agentFilter = &self
	}

	return s.candidateRepo.List(ctx, agentFilter, page, pageSize)
}
