package auth_test

import (
	"testing"
	"time"

	"github.com/hazfactura/console/auth"
	"github.com/hazfactura/console/internal/errors"
	"github.com/hazfactura/console/token/tokenfake"
	"github.com/stretchr/testify/require"
)

func requireFieldErrors(t *testing.T, err error, fields ...string) auth.ValidationErrors {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrValidation))

	var verrs auth.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	for _, field := range fields {
		require.Contains(t, verrs, field)
	}
	require.Len(t, verrs, len(fields))
	return verrs
}

func TestSignInForm_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		form := auth.SignInForm{Correo: "  ana@example.com ", Password: "x"}
		require.NoError(t, form.Validate())
		require.Equal(t, "ana@example.com", form.Correo)
	})

	t.Run("missing both", func(t *testing.T) {
		form := auth.SignInForm{}
		requireFieldErrors(t, form.Validate(), "correo", "password")
	})

	t.Run("malformed email", func(t *testing.T) {
		for _, email := range []string{"ana", "ana@", "ana@example", "Ana <ana@example.com>"} {
			form := auth.SignInForm{Correo: email, Password: "x"}
			verrs := requireFieldErrors(t, form.Validate(), "correo")
			require.Equal(t, "Ingresa un correo electrónico válido", verrs["correo"])
		}
	})
}

func TestSignUpForm_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		form := auth.SignUpForm{Nombre: "Al", Apellidos: "Ríos", Correo: "al@example.com", Terms: true}
		require.NoError(t, form.Validate())
	})

	t.Run("each rule", func(t *testing.T) {
		form := auth.SignUpForm{Nombre: "A", Apellidos: " ", Correo: "nope"}
		verrs := requireFieldErrors(t, form.Validate(), "nombre", "apellidos", "correo", "terms")
		require.Equal(t, "Debes aceptar los términos y condiciones", verrs["terms"])
	})

	t.Run("accented names count runes", func(t *testing.T) {
		form := auth.SignUpForm{Nombre: "Íñ", Apellidos: "Ño", Correo: "a@b.mx", Terms: true}
		require.NoError(t, form.Validate())
	})
}

func TestActivationForm_Validate(t *testing.T) {
	welcome := tokenfake.Welcome("u1", "Ana", "López", "ana@example.com")

	t.Run("valid", func(t *testing.T) {
		form := auth.ActivationForm{Token: welcome, Password: "Secreto123", Confirm: "Secreto123"}
		claims, err := form.Validate()
		require.NoError(t, err)
		require.Equal(t, "u1", claims.ID)
		require.Equal(t, "Ana", claims.GivenName)
	})

	t.Run("weak password", func(t *testing.T) {
		cases := map[string]string{
			"Corta1":     "La contraseña debe contener al menos 8 caracteres",
			"sinmayus12": "La contraseña debe contener una letra mayúscula",
			"SinNumeros": "La contraseña debe contener un número",
		}
		for password, msg := range cases {
			form := auth.ActivationForm{Token: welcome, Password: password, Confirm: password}
			_, err := form.Validate()
			verrs := requireFieldErrors(t, err, "password")
			require.Equal(t, msg, verrs["password"])
		}
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		form := auth.ActivationForm{Token: welcome, Password: "Secreto123", Confirm: "Secreto124"}
		_, err := form.Validate()
		requireFieldErrors(t, err, "confirm")
	})

	t.Run("bad tokens", func(t *testing.T) {
		cases := map[string]string{
			"garbage": "El enlace de activación no es válido",
			tokenfake.Mint(time.Now().Add(time.Hour), nil):                       "El enlace de activación no es válido",
			tokenfake.Mint(time.Now().Add(-time.Hour), map[string]any{"id": "u1"}): "El enlace de activación ha expirado",
		}
		for raw, msg := range cases {
			form := auth.ActivationForm{Token: raw, Password: "Secreto123", Confirm: "Secreto123"}
			_, err := form.Validate()
			verrs := requireFieldErrors(t, err, "token")
			require.Equal(t, msg, verrs["token"])
		}
	})
}

func TestAccountForm_Validate(t *testing.T) {
	valid := func() auth.AccountForm {
		return auth.AccountForm{
			TipoPersona:   "persona_moral",
			RFC:           " abc123456xy9 ",
			Nombre:        "Ana SA",
			Phone:         "5512345678",
			RegimenFiscal: "601",
		}
	}

	t.Run("valid upper-cases rfc", func(t *testing.T) {
		form := valid()
		require.NoError(t, form.Validate())
		require.Equal(t, "ABC123456XY9", form.RFC)
	})

	t.Run("thirteen char rfc", func(t *testing.T) {
		form := valid()
		form.TipoPersona = "persona_fisica"
		form.RFC = "LOAA800101AB1"
		require.NoError(t, form.Validate())
	})

	t.Run("each rule", func(t *testing.T) {
		form := auth.AccountForm{TipoPersona: "empresa", RFC: "ABC", Nombre: "AB", Phone: "55-1234-5678"}
		requireFieldErrors(t, form.Validate(), "tipo_persona", "rfc", "nombre", "phone", "regimenFiscal")
	})

	t.Run("phone length", func(t *testing.T) {
		form := valid()
		form.Phone = "551234567"
		requireFieldErrors(t, form.Validate(), "phone")
	})
}

func TestValidationErrors_Error(t *testing.T) {
	err := auth.ValidationErrors{"rfc": "corto", "nombre": "corto"}
	require.Equal(t, "validation failed: nombre: corto; rfc: corto", err.Error())
}
