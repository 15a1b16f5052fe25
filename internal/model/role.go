package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // ADMIN, STAFF
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

// Role codes as constants
const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Catalog management, request decisions and sale overrides",
	},
	{
		Code:        RoleStaff,
		Name:        "Staff",
		Description: "Records sales, raises restock requests and receives stock",
	},
}
