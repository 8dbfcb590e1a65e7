package auth

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/gustavosantosASA/Florestal-App-PPR/internal/users"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
	pkgerrors "github.com/gustavosantosASA/Florestal-App-PPR/pkg/errors"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/security"
)

const (
	MinPasswordLength = 6

	RegisteredMessage       = "Usuário cadastrado com sucesso"
	passwordTooShortMessage = "A senha deve ter pelo menos 6 caracteres"
	passwordMismatchMessage = "As senhas não coincidem"
	loginRequiredMessage    = "Login é obrigatório"
	emailRequiredMessage    = "E-mail é obrigatório"
)

// RegisterRequest is the self-service sign-up payload.
type RegisterRequest struct {
	Login           string `json:"login" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// RegisterResult carries the confirmation message and the created user.
type RegisterResult struct {
	Message string         `json:"message"`
	User    *users.UserDTO `json:"user"`
}

// RegisterService handles self-service registration. New accounts always get
// the regular user role.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
}

type userCreator interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*users.User, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	UserRepo userCreator
}

type registerService struct {
	users userCreator
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository required")
	}
	return &registerService{users: params.UserRepo}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if err := validateNewUser(req.Login, req.Email, req.Password); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, passwordMismatchMessage)
	}

	user, err := createUser(ctx, s.users, req.Login, req.Email, req.Password, enums.UserRoleUser)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{Message: RegisteredMessage, User: users.FromUser(user)}, nil
}

// validateNewUser runs the local checks; none of them touch the sheet.
func validateNewUser(login, email, password string) error {
	if strings.TrimSpace(login) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, loginRequiredMessage)
	}
	if strings.TrimSpace(email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, emailRequiredMessage)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, passwordTooShortMessage)
	}
	return nil
}

func createUser(ctx context.Context, repo userCreator, login, email, password string, role enums.UserRole) (*users.User, error) {
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return repo.Create(ctx, users.CreateUserDTO{
		Login:        strings.TrimSpace(login),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Role:         role,
	})
}
