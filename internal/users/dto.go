package users

import (
	"strings"

	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
)

// Column names of the users tab.
const (
	ColumnLogin    = "Login"
	ColumnEmail    = "Email"
	ColumnPassword = "Senha"
	ColumnRole     = "Tipo de Usuário"
)

var requiredColumns = []string{ColumnLogin, ColumnEmail, ColumnPassword, ColumnRole}

// User is one record of the users tab. PasswordHash is the stored SHA-256 hex digest.
type User struct {
	Login        string
	Email        string
	PasswordHash string
	Role         enums.UserRole
	RowNumber    int
}

// IsAdmin reports whether the user sees every schedule row.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role.IsAdmin()
}

// UserDTO is the transport shape that omits the password digest.
type UserDTO struct {
	Login string         `json:"login"`
	Email string         `json:"email"`
	Role  enums.UserRole `json:"role"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Login        string
	Email        string
	PasswordHash string
	Role         enums.UserRole
}

func (d CreateUserDTO) toRecord() sheets.Record {
	role := d.Role
	if !role.IsValid() {
		role = enums.UserRoleUser
	}
	return sheets.Record{
		ColumnLogin:    strings.TrimSpace(d.Login),
		ColumnEmail:    strings.TrimSpace(d.Email),
		ColumnPassword: d.PasswordHash,
		ColumnRole:     role.String(),
	}
}

func FromUser(u *User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{Login: u.Login, Email: u.Email, Role: u.Role}
}

func fromRow(row sheets.Row) *User {
	role, err := enums.ParseUserRole(row.Values[ColumnRole])
	if err != nil {
		role = enums.UserRoleUser
	}
	return &User{
		Login:        strings.TrimSpace(row.Values[ColumnLogin]),
		Email:        strings.TrimSpace(row.Values[ColumnEmail]),
		PasswordHash: strings.TrimSpace(row.Values[ColumnPassword]),
		Role:         role,
		RowNumber:    row.Number,
	}
}
