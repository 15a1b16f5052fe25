package repository

import (
	"context"
	"errors"

	"go-pos-inventory/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll(ctx context.Context) ([]model.Role, error)
	FindByCode(ctx context.Context, code string) (*model.Role, error)
	SeedDefaults(ctx context.Context) error
	AssignPrivileges(ctx context.Context, role *model.Role, privileges []model.Privilege) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Preload("Privileges").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByCode(ctx context.Context, code string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) SeedDefaults(ctx context.Context) error {
	for _, defaultRole := range model.DefaultRoles {
		var existingRole model.Role
		err := r.db.WithContext(ctx).Where("code = ?", defaultRole.Code).First(&existingRole).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role := defaultRole
			if err := r.db.WithContext(ctx).Create(&role).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}

func (r *roleRepo) AssignPrivileges(ctx context.Context, role *model.Role, privileges []model.Privilege) error {
	return r.db.WithContext(ctx).Model(role).Association("Privileges").Replace(privileges)
}
