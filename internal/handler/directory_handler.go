package handler

import (
	"strconv"

	"recruitdesk/internal/model"
	"recruitdesk/internal/service"
	"recruitdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
	Phone    string `json:"phone"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.auth.CreateUser(c.Request.Context(), &service.CreateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Phone:    req.Phone,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, user)
}

func (h *Handler) DeactivateUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid user id")
		return
	}

	if err := h.auth.DeactivateUser(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil)
}

func (h *Handler) ListUsers(c *gin.Context) {
	page, pageSize := pagination(c)
	users, total, err := h.auth.ListUsers(c.Request.Context(), c.Query("role"), page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"items": users, "total": total})
}

type CreateCandidateRequest struct {
	Name          string          `json:"name" binding:"required"`
	PassportNo    string          `json:"passport_no"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	Country       string          `json:"country"`
	AgentID       *int64          `json:"agent_id"`
	EmployerID    *int64          `json:"employer_id"`
	PackageID     *int64          `json:"package_id"`
	PackageAmount decimal.Decimal `json:"package_amount"`
}

func (h *Handler) CreateCandidate(c *gin.Context) {
	var req CreateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	principal, ok := GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "login required")
		return
	}

	candidate, err := h.candidates.CreateCandidate(c.Request.Context(), principal, &service.CreateCandidateRequest{
		Name:          req.Name,
		PassportNo:    req.PassportNo,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		AgentID:       req.AgentID,
		EmployerID:    req.EmployerID,
		PackageID:     req.PackageID,
		PackageAmount: req.PackageAmount,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, candidate)
}

func (h *Handler) GetCandidate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid candidate id")
		return
	}

	principal, ok := GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "login required")
		return
	}

	candidate, err := h.candidates.GetCandidate(c.Request.Context(), principal, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, candidate)
}

type UpdateCandidateRequest struct {
	Name          *string          `json:"name"`
	PassportNo    *string          `json:"passport_no"`
	Phone         *string          `json:"phone"`
	Email         *string          `json:"email"`
	Address       *string          `json:"address"`
	City          *string          `json:"city"`
	Country       *string          `json:"country"`
	Status        *string          `json:"status"`
	EmployerID    *int64           `json:"employer_id"`
	PackageAmount *decimal.Decimal `json:"package_amount"`
}

func (h *Handler) UpdateCandidate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid candidate id")
		return
	}

	var req UpdateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	principal, ok := GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "login required")
		return
	}

	if err := h.candidates.UpdateCandidate(c.Request.Context(), principal, id, &service.UpdateCandidateRequest{
		Name:          req.Name,
		PassportNo:    req.PassportNo,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		Status:        req.Status,
		EmployerID:    req.EmployerID,
		PackageAmount: req.PackageAmount,
	}); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil)
}

func (h *Handler) DeleteCandidate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid candidate id")
		return
	}

	principal, ok := GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "login required")
		return
	}

	if err := h.candidates.DeleteCandidate(c.Request.Context(), principal, id); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil)
}

func (h *Handler) ListCandidates(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "login required")
		return
	}

	page, pageSize := pagination(c)
	candidates, total, err := h.candidates.ListCandidates(c.Request.Context(), principal, page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{"items": candidates, "total": total})
}

type EmployerRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Country     string `json:"country"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
}

func (h *Handler) CreateEmployer(c *gin.Context) {
	var req EmployerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	employer := &model.Employer{
		CompanyName: req.CompanyName,
		Country:     req.Country,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
	}
	if err := h.directory.CreateEmployer(c.Request.Context(), employer); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, employer)
}

func (h *Handler) GetEmployer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid employer id")
		return
	}

	employer, err := h.directory.GetEmployer(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, employer)
}

func (h *Handler) UpdateEmployer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid employer id")
		return
	}

	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	sanitizeUpdateFields(fields)

	if err := h.directory.UpdateEmployer(c.Request.Context(), id, fields); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil)
}

func (h *Handler) DeleteEmployer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid employer id")
		return
	}

	if err := h.directory.DeleteEmployer(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil)
}

func (h *Handler) ListEmployers(c *gin.Context) {
	page, pageSize := pagination(c)
	employers, total, err := h.directory.ListEmployers(c.Request.Context(), page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"items": employers, "total": total})
}

type PackageRequest struct {
	Name        string          `json:"name" binding:"required"`
	Country     string          `json:"country"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
}

func (h *Handler) CreatePackage(c *gin.Context) {
	var req PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	pkg := &model.JobPackage{
		Name:        req.Name,
		Country:     req.Country,
		Description: req.Description,
		Amount:      req.Amount,
	}
	if err := h.directory.CreatePackage(c.Request.Context(), pkg); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, pkg)
}

func (h *Handler) GetPackage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid package id")
		return
	}

	pkg, err := h.directory.GetPackage(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, pkg)
}

func (h *Handler) UpdatePackage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid package id")
		return
	}

	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}
	sanitizeUpdateFields(fields)

	if err := h.directory.UpdatePackage(c.Request.Context(), id, fields); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil)
}

func (h *Handler) DeletePackage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid package id")
		return
	}

	if err := h.directory.DeletePackage(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil)
}

func (h *Handler) ListPackages(c *gin.Context) {
	page, pageSize := pagination(c)
	packages, total, err := h.directory.ListPackages(c.Request.Context(), page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"items": packages, "total": total})
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// sanitizeUpdateFields strips identifiers and bookkeeping columns from a raw
// field-map update so a client cannot rewrite them.
func sanitizeUpdateFields(fields map[string]interface{}) {
	for _, key := range []string{"id", "is_deleted", "deleted_at", "created_at", "updated_at"} {
		delete(fields, key)
	}
}
