package auth

import (
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hazfactura/console/api"
	"github.com/hazfactura/console/internal/errors"
	"github.com/hazfactura/console/token"
	"github.com/hazfactura/console/users"
)

// ValidationErrors maps a form field to the message shown beside it
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrValidation
func (v ValidationErrors) Unwrap() error {
	return errors.ErrValidation
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// SignInForm is the sign-in page's form
type SignInForm struct {
	Correo   string
	Password string
}

// Validate checks the sign-in rules
func (f *SignInForm) Validate() error {
	errs := ValidationErrors{}
	f.Correo = strings.TrimSpace(f.Correo)
	if msg := checkEmail(f.Correo); msg != "" {
		errs["correo"] = msg
	}
	if f.Password == "" {
		errs["password"] = "Ingresa tu contraseña"
	}
	return errs.orNil()
}

// SignUpForm is the free-trial form
type SignUpForm struct {
	Nombre    string
	Apellidos string
	Correo    string
	Terms     bool
}

// Validate checks the sign-up rules
func (f *SignUpForm) Validate() error {
	errs := ValidationErrors{}
	f.Nombre = strings.TrimSpace(f.Nombre)
	f.Apellidos = strings.TrimSpace(f.Apellidos)
	f.Correo = strings.TrimSpace(f.Correo)

	if utf8.RuneCountInString(f.Nombre) < 2 {
		errs["nombre"] = "El nombre debe tener al menos 2 caracteres"
	}
	if utf8.RuneCountInString(f.Apellidos) < 2 {
		errs["apellidos"] = "Los apellidos deben tener al menos 2 caracteres"
	}
	if msg := checkEmail(f.Correo); msg != "" {
		errs["correo"] = msg
	}
	if !f.Terms {
		errs["terms"] = "Debes aceptar los términos y condiciones"
	}
	return errs.orNil()
}

// ActivationForm sets the first password of an account from its welcome link
type ActivationForm struct {
	Token    string
	Password string
	Confirm  string
}

// Validate checks the activation rules and returns the welcome token's claims
func (f *ActivationForm) Validate() (*token.Claims, error) {
	errs := ValidationErrors{}

	claims, err := WelcomeClaims(f.Token)
	if err != nil {
		errs["token"] = ActivationLinkMessage(err)
	}
	if err := users.ValidatePasswordStrength(f.Password); err != nil {
		errs["password"] = "La contraseña debe contener " + err.Error()
	}
	if f.Confirm != f.Password {
		errs["confirm"] = "Las contraseñas no coinciden"
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}
	return claims, nil
}

// WelcomeClaims decodes a welcome-link token. It must be unexpired and name
// the account it activates.
func WelcomeClaims(raw string) (*token.Claims, error) {
	claims, err := token.Validate(raw)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[auth WelcomeClaims] token carries no account id")
	}
	return claims, nil
}

// ActivationLinkMessage is the operator-facing reason a welcome link was refused
func ActivationLinkMessage(err error) string {
	if errors.Is(err, errors.ErrTokenExpired) {
		return "El enlace de activación ha expirado"
	}
	return "El enlace de activación no es válido"
}

// AccountForm is the business/tax profile completed by a new admin
type AccountForm struct {
	TipoPersona   string
	RFC           string
	Nombre        string
	Phone         string
	RegimenFiscal string
}

// Validate checks the account setup rules. RFC is upper-cased in place.
func (f *AccountForm) Validate() error {
	errs := ValidationErrors{}
	f.RFC = strings.ToUpper(strings.TrimSpace(f.RFC))
	f.Nombre = strings.TrimSpace(f.Nombre)
	f.Phone = strings.TrimSpace(f.Phone)
	f.RegimenFiscal = strings.TrimSpace(f.RegimenFiscal)

	if !api.PersonType(f.TipoPersona).Valid() {
		errs["tipo_persona"] = "Selecciona el tipo de persona"
	}
	if n := utf8.RuneCountInString(f.RFC); n < 12 || n > 13 {
		errs["rfc"] = "El RFC debe tener 12 o 13 caracteres"
	}
	if utf8.RuneCountInString(f.Nombre) < 3 {
		errs["nombre"] = "La razón social debe tener al menos 3 caracteres"
	}
	if !isDigits(f.Phone, 10) {
		errs["phone"] = "El teléfono debe tener 10 dígitos"
	}
	if f.RegimenFiscal == "" {
		errs["regimenFiscal"] = "Selecciona un régimen fiscal"
	}
	return errs.orNil()
}

func checkEmail(email string) string {
	if email == "" {
		return "Ingresa tu correo electrónico"
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return "Ingresa un correo electrónico válido"
	}
	return ""
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
