package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/usuariosapp/accounts-api/pkg/apperror"
)

// UserRecord is the untrusted inbound shape the rule set runs against.
// Permission is the display name ("Operator", "Supervisor", "Manager").
type UserRecord struct {
	Name       string
	Email      string
	Password   string
	Permission string
}

var (
	nameCharsRe  = regexp.MustCompile(`^[A-Za-zÀ-ÿ\s]+$`)
	emailShapeRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	pwdCharsRe   = regexp.MustCompile(`^[A-Za-z0-9@$!%*?&]+$`)
)

// UserRules is the structural rule set applied to inbound user records,
// independent of the aggregate's own invariant checks. Rules are evaluated
// one by one so every failure is collected instead of stopping at the first.
type UserRules struct {
	v *validator.Validate
}

type rule struct {
	field   string
	tag     string
	message string
}

var (
	nameRules = []rule{
		{"name", "required", "name is required"},
		{"name", "min=3,max=100", "name must be between 3 and 100 characters"},
		{"name", "namechars", "name must contain only letters and spaces"},
	}
	emailRules = []rule{
		{"email", "required", "email is required"},
		{"email", "emailshape", "email must be a valid address with a complete domain"},
	}
	passwordRules = []rule{
		{"password", "required", "password is required"},
		{"password", "min=8", "password must be at least 8 characters"},
		{"password", "containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZ", "password must contain an uppercase letter"},
		{"password", "containsany=abcdefghijklmnopqrstuvwxyz", "password must contain a lowercase letter"},
		{"password", "containsany=0123456789", "password must contain a digit"},
		{"password", "containsany=@$!%*?&", "password must contain a special character (@$!%*?&)"},
		{"password", "pwdchars", "password may only use letters, digits and @$!%*?&"},
	}
	permissionRules = []rule{
		{"permission", "oneof=Operator Supervisor Manager", "invalid permission, valid values: Operator, Supervisor, Manager"},
	}
)

// NewUserRules builds a rule set backed by its own validator instance so the
// custom tags do not leak into Gin's binding validator.
func NewUserRules() *UserRules {
	v := validator.New()
	_ = v.RegisterValidation("namechars", matches(nameCharsRe))
	_ = v.RegisterValidation("emailshape", matches(emailShapeRe))
	_ = v.RegisterValidation("pwdchars", matches(pwdCharsRe))
	return &UserRules{v: v}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Validate runs the full rule set for a create request. An empty result means
// the record is structurally valid.
func (r *UserRules) Validate(rec UserRecord) []apperror.FieldError {
	var out []apperror.FieldError
	out = r.check(out, rec.Name, nameRules)
	out = r.check(out, rec.Email, emailRules)
	out = r.check(out, rec.Password, passwordRules)
	out = r.check(out, rec.Permission, permissionRules)
	return out
}

// ValidateContactInfo runs the rules that participate in an account update:
// the effective email always, the password only when a new one was supplied
// (an empty password means "keep the current hash").
func (r *UserRules) ValidateContactInfo(email, password string) []apperror.FieldError {
	var out []apperror.FieldError
	out = r.check(out, email, emailRules)
	if password != "" {
		out = r.check(out, password, passwordRules)
	}
	return out
}

func (r *UserRules) check(out []apperror.FieldError, value string, rules []rule) []apperror.FieldError {
	for _, rl := range rules {
		if err := r.v.Var(value, rl.tag); err != nil {
			out = append(out, apperror.FieldError{Field: rl.field, Message: rl.message})
		}
	}
	return out
}
