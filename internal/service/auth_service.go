package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-pos-inventory/internal/model"
	"go-pos-inventory/internal/repository"
	"go-pos-inventory/pkg/jwt"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	// Authenticate resolves a bearer token to the acting user.
	Authenticate(ctx context.Context, tokenString string) (*model.Actor, []string, error)
	Me(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`       // Direct role object
	Privileges []string           `json:"privileges"` // Flat privileges array for easy checking
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{userRepo: userRepo, tokens: tokens, log: log}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	// 1. Find user by username
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, classify(err)
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 4. Single Session: Generate New Token Version
	version := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, version); err != nil {
		return nil, classify(err)
	}

	// 5. Generate JWT token with TokenVersion
	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.FullName, user.RoleCode(), user.GetPrivilegeCodes(), version)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.log.Info("user logged in", zap.String("username", user.Username), zap.String("role", user.RoleCode()))
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (*model.Actor, []string, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, classify(err)
	}
	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	// Check against DB for strict session (TokenVersion)
	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, ErrSessionReplaced
	}

	actor := &model.Actor{
		UserID:   user.ID,
		Username: user.Username,
		Name:     user.FullName,
		Role:     user.RoleCode(),
	}
	return actor, user.GetPrivilegeCodes(), nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, classify(err)
	}
	resp := user.ToResponse()
	return &resp, nil
}

// Logout invalidates every token issued so far.
func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	return classify(s.userRepo.UpdateTokenVersion(ctx, userID, uuid.New().String()))
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if err := validate(&ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return classify(err)
	}
	if !user.CheckPassword(oldPassword) {
		return ErrInvalidCredentials
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, user.Password); err != nil {
		return classify(err)
	}
	return s.Logout(ctx, userID)
}

// DefaultUser is an account created on first start when absent.
type DefaultUser struct {
	Username string
	Password string
	FullName string
	Role     string
}

var DefaultUsers = []DefaultUser{
	{Username: "admin", Password: "admin123", FullName: "Administrator", Role: model.RoleAdmin},
	{Username: "staff", Password: "staff123", FullName: "Staff", Role: model.RoleStaff},
}

// SeedDefaults creates privileges, roles, their grants and the default
// accounts. Existing rows are left untouched.
func SeedDefaults(ctx context.Context, privRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository, userRepo repository.UserRepository, log *zap.Logger) error {
	if err := privRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed privileges: %w", err)
	}
	if err := roleRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	grants := map[string][]string{
		model.RoleStaff: model.StaffPrivileges,
	}
	all, err := privRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("seed grants: %w", err)
	}

	roles := map[string]*model.Role{}
	for _, code := range []string{model.RoleAdmin, model.RoleStaff} {
		role, err := roleRepo.FindByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("seed grants: %w", err)
		}
		privs := all
		if codes, ok := grants[code]; ok {
			if privs, err = privRepo.FindByCodes(ctx, codes); err != nil {
				return fmt.Errorf("seed grants: %w", err)
			}
		}
		if err := roleRepo.AssignPrivileges(ctx, role, privs); err != nil {
			return fmt.Errorf("seed grants for %s: %w", code, err)
		}
		roles[code] = role
	}

	for _, du := range DefaultUsers {
		_, err := userRepo.FindByUsername(ctx, du.Username)
		if err == nil {
			continue
		}
		if !repository.IsNotFound(err) {
			return fmt.Errorf("seed user %s: %w", du.Username, err)
		}

		user := &model.User{Username: du.Username, FullName: du.FullName, IsActive: true, RoleID: &roles[du.Role].ID}
		user.CreatedBy = "system"
		if err := user.SetPassword(du.Password); err != nil {
			return err
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", du.Username, err)
		}
		log.Info("default user created", zap.String("username", du.Username), zap.String("role", du.Role))
	}
	return nil
}
