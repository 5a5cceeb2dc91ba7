package models

type Role string

const (
	RoleHoldingManager Role = "holding_manager"
	RoleCompanyManager Role = "company_manager"
)

// Identity is the who-is-asking view derived once per request from the
// verified token. Company managers carry the tenant they are restricted to;
// holding managers carry no tenant and see the aggregate collection.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Tenant   string `json:"tenant,omitempty"`
}
