// Package authz holds the closed role set and the capability table. All role
// checks in the service go through Can / CanAccessCandidate so the allow-lists
// live in one place instead of ad hoc string checks per handler.
package authz

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleAgent      Role = "agent"
	RoleAccountant Role = "accountant"
	RoleDataEntry  Role = "data_entry"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleAgent, RoleAccountant, RoleDataEntry:
		return true
	}
	return false
}

type Operation string

const (
	OpCandidateRead   Operation = "candidate:read"
	OpCandidateWrite  Operation = "candidate:write"
	OpCandidateDelete Operation = "candidate:delete"
	OpEmployerRead    Operation = "employer:read"
	OpEmployerWrite   Operation = "employer:write"
	OpPackageRead     Operation = "package:read"
	OpPackageWrite    Operation = "package:write"
	OpPaymentRead     Operation = "payment:read"
	OpPaymentWrite    Operation = "payment:write"
	OpGatewayInit     Operation = "gateway:init"
	OpUserAdmin       Operation = "user:admin"
)

// capabilities maps role -> allowed operations. Agent grants are further
// narrowed by ownership: see CanAccessCandidate.
var capabilities = map[Role][]Operation{
	RoleSuperAdmin: {
		OpCandidateRead, OpCandidateWrite, OpCandidateDelete, OpEmployerRead, OpEmployerWrite,
		OpPackageRead, OpPackageWrite, OpPaymentRead, OpPaymentWrite,
		OpGatewayInit, OpUserAdmin,
	},
	RoleAdmin: {
		OpCandidateRead, OpCandidateWrite, OpCandidateDelete, OpEmployerRead, OpEmployerWrite,
		OpPackageRead, OpPackageWrite, OpPaymentRead, OpPaymentWrite,
		OpGatewayInit,
	},
	RoleAgent: {
		OpCandidateRead, OpCandidateWrite, OpEmployerRead, OpPackageRead,
		OpPaymentRead, OpPaymentWrite, OpGatewayInit,
	},
	RoleAccountant: {
		OpCandidateRead, OpEmployerRead, OpPackageRead,
		OpPaymentRead, OpPaymentWrite, OpGatewayInit,
	},
	RoleDataEntry: {
		OpCandidateRead, OpCandidateWrite, OpEmployerRead, OpEmployerWrite,
		OpPackageRead, OpPackageWrite,
	},
}

// Can reports whether the role is allowed to perform op.
func Can(role Role, op Operation) bool {
	for _, allowed := range capabilities[role] {
		if allowed == op {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller extracted from the bearer token.
type Principal struct {
	UserID int64
	Role   Role
}

// CanAccessCandidate applies the ownership rule on top of the capability
// table: agents only reach candidates assigned to them, every other role that
// holds the operation reaches any candidate.
func CanAccessCandidate(p Principal, op Operation, agentID *int64) bool {
	if !Can(p.Role, op) {
		return false
	}
	if p.Role != RoleAgent {
		return true
	}
	return agentID != nil && *agentID == p.UserID
}
