package model

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a staff member or administrator recording sales and requests.
type User struct {
	BaseModel
	Username     string `gorm:"type:varchar(50);uniqueIndex;not null" json:"username" validate:"required"`
	Password     string `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	FullName     string `gorm:"type:varchar(100)" json:"full_name"`
	RoleID       *uint  `gorm:"index" json:"role_id"`
	Role         *Role  `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	TokenVersion string `gorm:"type:varchar(255);default:''" json:"-"` // For single session enforcement
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// RoleCode returns the code of the user's role, or "" when unassigned.
func (u *User) RoleCode() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Code
}

// GetPrivilegeCodes returns the privilege codes granted through the role
func (u *User) GetPrivilegeCodes() []string {
	if u.Role == nil {
		return []string{}
	}
	codes := make([]string, len(u.Role.Privileges))
	for i, p := range u.Role.Privileges {
		codes[i] = p.Code
	}
	return codes
}

// Actor is the authenticated identity an operation is performed for.
type Actor struct {
	UserID   uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
}

// Audit is the value written to created_by / updated_by columns.
func (a Actor) Audit() string {
	if a.UserID == uuid.Nil {
		return "system"
	}
	return a.UserID.String()
}

// UserRef is the nullable foreign key for the actor.
func (a Actor) UserRef() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	Privileges []string  `json:"privileges"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Role:       u.RoleCode(),
		IsActive:   u.IsActive,
		Privileges: u.GetPrivilegeCodes(),
	}
}
