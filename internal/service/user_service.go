package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-pos-inventory/internal/model"
	"go-pos-inventory/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUsernameExists = errors.New("username already exists")
	ErrRoleNotFound   = errors.New("role not found")
)

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, actor model.Actor) (*model.UserResponse, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, actor model.Actor) (*model.UserResponse, error)
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	GetRoles(ctx context.Context) ([]model.Role, error)
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Role     string `json:"role" validate:"required"`
}

type UpdateUserRequest struct {
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	FullName string  `json:"full_name" validate:"required,max=100"`
	Role     string  `json:"role" validate:"required"`
	IsActive *bool   `json:"is_active"`
}

type userService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{userRepo: userRepo, roleRepo: roleRepo, log: log}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, actor model.Actor) (*model.UserResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate(req); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err == nil && existing != nil {
		return nil, ErrUsernameExists
	}
	if err != nil && !repository.IsNotFound(err) {
		return nil, classify(err)
	}

	role, err := s.findRole(ctx, req.Role)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		FullName: strings.TrimSpace(req.FullName),
		RoleID:   &role.ID,
		IsActive: true,
	}
	user.CreatedBy = actor.Audit()
	user.UpdatedBy = actor.Audit()
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrUsernameExists
		}
		return nil, classify(err)
	}

	s.log.Info("user created",
		zap.String("username", user.Username),
		zap.String("role", role.Code),
		zap.String("by", actor.Username))
	return s.GetUserByID(ctx, user.ID)
}

// UpdateUser changes profile, role and activation. Deactivating or changing
// the password revokes the user's current session.
func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, actor model.Actor) (*model.UserResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, classify(err)
	}

	role, err := s.findRole(ctx, req.Role)
	if err != nil {
		return nil, err
	}

	revoke := false
	user.FullName = strings.TrimSpace(req.FullName)
	user.RoleID = &role.ID
	if req.IsActive != nil {
		revoke = user.IsActive && !*req.IsActive
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = actor.Audit()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, classify(err)
	}

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.userRepo.UpdatePassword(ctx, userID, user.Password); err != nil {
			return nil, classify(err)
		}
		revoke = true
	}

	if revoke {
		if err := s.userRepo.UpdateTokenVersion(ctx, userID, uuid.New().String()); err != nil {
			return nil, classify(err)
		}
	}

	s.log.Info("user updated",
		zap.String("username", user.Username),
		zap.String("role", role.Code),
		zap.Bool("active", user.IsActive),
		zap.Bool("session_revoked", revoke),
		zap.String("by", actor.Username))
	return s.GetUserByID(ctx, userID)
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, classify(err)
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, classify(err)
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) GetRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.roleRepo.FindAll(ctx)
	return roles, classify(err)
}

func (s *userService) findRole(ctx context.Context, code string) (*model.Role, error) {
	role, err := s.roleRepo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, invalid("Role", ErrRoleNotFound.Error())
		}
		return nil, classify(err)
	}
	return role, nil
}
