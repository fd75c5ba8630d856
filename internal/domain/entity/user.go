package entity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/usuariosapp/accounts-api/pkg/apperror"
)

var (
	// Letters (including accented ranges) and spaces only.
	nameRe = regexp.MustCompile(`^[A-Za-zÀ-ÿ\s]+$`)
	// local@domain.tld, no embedded whitespace, exactly one @.
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// User is the aggregate root for a single account. Fields are exported for
// persistence mapping; all mutation goes through the methods below so an
// instance that violates an invariant is never observable.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	Permission   Permission
}

// NewUser validates name, email, password hash and permission in that order
// and fails on the first violation. On success it assigns a fresh id and the
// current UTC timestamp.
func NewUser(name, email, passwordHash string, permission Permission) (*User, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePasswordHash(passwordHash); err != nil {
		return nil, err
	}
	if err := validatePermission(permission); err != nil {
		return nil, err
	}
	return &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		Permission:   permission,
	}, nil
}

// UpdateContactInfo replaces email and password hash. Both values are
// validated before either field is assigned, so a failure leaves the
// aggregate untouched.
func (u *User) UpdateContactInfo(newEmail, newPasswordHash string) error {
	if err := validateEmail(newEmail); err != nil {
		return err
	}
	if err := validatePasswordHash(newPasswordHash); err != nil {
		return err
	}
	u.Email = newEmail
	u.PasswordHash = newPasswordHash
	return nil
}

// UpdatePermission changes the account's permission. Only a Manager-level
// requester may escalate or demote; the new value is also checked against
// the enumerated set since it crosses an untrusted boundary.
func (u *User) UpdatePermission(newPermission, requesterPermission Permission) error {
	if requesterPermission != PermissionManager {
		return apperror.Unauthorized("only Managers may update permissions")
	}
	if err := validatePermission(newPermission); err != nil {
		return err
	}
	u.Permission = newPermission
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.InvalidArgument("name", "name is required")
	}
	if len([]rune(name)) < 3 || len([]rune(name)) > 100 {
		return apperror.InvalidArgument("name", "name must be between 3 and 100 characters")
	}
	if !nameRe.MatchString(name) {
		return apperror.InvalidArgument("name", "name must contain only letters and spaces")
	}
	return nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperror.InvalidArgument("email", "email is required")
	}
	if !emailRe.MatchString(email) {
		return apperror.InvalidArgument("email", "email must be a valid address")
	}
	return nil
}

func validatePasswordHash(passwordHash string) error {
	if strings.TrimSpace(passwordHash) == "" {
		return apperror.InvalidArgument("password", "password hash is required")
	}
	return nil
}

func validatePermission(permission Permission) error {
	if !permission.Valid() {
		return apperror.InvalidArgument("permission", "invalid permission, valid values: Operator, Supervisor, Manager")
	}
	return nil
}
