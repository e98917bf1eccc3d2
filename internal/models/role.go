package models

// Department names as they appear in role assignments. Non-global roles are
// always scoped to exactly one of these.
const (
	DepartmentOperacoes = "Operações"
	DepartmentRH        = "RH"
	DepartmentComercial = "Comercial"
	DepartmentTI        = "TI"
	DepartmentCompras   = "Compras"
)

// Global role names.
const (
	RoleAdministrador = "Administrador"
	RoleDiretor       = "Diretor"
)

// Department role names. The same name may carry different permission grants
// in different departments (Gerente in Operações vs. Comercial, for example).
const (
	RoleManobrista    = "Manobrista"
	RoleEncarregado   = "Encarregado"
	RoleSupervisor    = "Supervisor"
	RoleGerente       = "Gerente"
	RoleAnalistaJr    = "Analista Júnior"
	RoleAnalistaPleno = "Analista Pleno"
	RoleVendedor      = "Vendedor"
	RoleTecnico       = "Técnico"
	RoleCoordenador   = "Coordenador"
	RoleComprador     = "Comprador"
)

// RoleAssignment is one role held by one user, as supplied by the identity
// collaborator. Department is empty for global roles. The RBAC core only
// reads assignments; it never creates or mutates them.
type RoleAssignment struct {
	RoleName   string `json:"role_name"`
	Department string `json:"department,omitempty"`
	IsGlobal   bool   `json:"is_global"`
}
