package auth

import (
	"context"

	"github.com/gustavosantosASA/Florestal-App-PPR/internal/users"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
)

// AdminCreateUserRequest lets an administrator create an account with any role.
type AdminCreateUserRequest struct {
	Login    string `json:"login" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// AdminRegisterService handles administrator-driven user creation.
type AdminRegisterService interface {
	Register(ctx context.Context, req AdminCreateUserRequest) (*RegisterResult, error)
}

// AdminRegisterServiceParams names the dependencies for the admin register flow.
type AdminRegisterServiceParams struct {
	UserRepo userCreator
}

type adminRegisterService struct {
	users userCreator
}

// NewAdminRegisterService builds the admin user creation service.
func NewAdminRegisterService(params AdminRegisterServiceParams) (AdminRegisterService, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository required")
	}
	return &adminRegisterService{users: params.UserRepo}, nil
}

func (s *adminRegisterService) Register(ctx context.Context, req AdminCreateUserRequest) (*RegisterResult, error) {
	role, err := enums.ParseUserRole(req.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role").
			WithDetails(map[string]any{"allowed": []enums.UserRole{enums.UserRoleUser, enums.UserRoleAdmin}})
	}
	if err := validateNewUser(req.Login, req.Email, req.Password); err != nil {
		return nil, err
	}

	user, err := createUser(ctx, s.users, req.Login, req.Email, req.Password, role)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{Message: RegisteredMessage, User: users.FromUser(user)}, nil
}
