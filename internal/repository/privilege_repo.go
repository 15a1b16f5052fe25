package repository

import (
	"context"
	"errors"

	"go-pos-inventory/internal/model"

	"gorm.io/gorm"
)

type PrivilegeRepository interface {
	FindByCodes(ctx context.Context, codes []string) ([]model.Privilege, error)
	FindAll(ctx context.Context) ([]model.Privilege, error)
	SeedDefaults(ctx context.Context) error
}

type privilegeRepo struct {
	db *gorm.DB
}

func NewPrivilegeRepo(db *gorm.DB) PrivilegeRepository {
	return &privilegeRepo{db}
}

func (r *privilegeRepo) FindByCodes(ctx context.Context, codes []string) ([]model.Privilege, error) {
	var privileges []model.Privilege
	if err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&privileges).Error; err != nil {
		return nil, err
	}
	return privileges, nil
}

func (r *privilegeRepo) FindAll(ctx context.Context) ([]model.Privilege, error) {
	var privileges []model.Privilege
	if err := r.db.WithContext(ctx).Find(&privileges).Error; err != nil {
		return nil, err
	}
	return privileges, nil
}

// SeedDefaults creates default privileges if they don't exist
func (r *privilegeRepo) SeedDefaults(ctx context.Context) error {
	for _, p := range model.DefaultPrivileges {
		var existing model.Privilege
		err := r.db.WithContext(ctx).Where("code = ?", p.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			privilege := p
			if err := r.db.WithContext(ctx).Create(&privilege).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}
