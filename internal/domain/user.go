package domain

import "time"

// Role is the functional team a user belongs to, used to target mentions.
type Role string

const (
	RolePurchasing        Role = "purchasing"
	RoleProjectManagement Role = "project_management"
	RoleQuality           Role = "quality"
	RoleProduction        Role = "production"
	RoleLogistics         Role = "logistics"
	RoleCustomerService   Role = "customer_service"
	RoleSalesManagement   Role = "sales_management"
)

type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Role      Role      `db:"role" json:"role"`
	IsAdmin   bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
