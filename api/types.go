package api

import (
	"bytes"
	"encoding/json"

	"github.com/hazfactura/console/users"
)

// Ref is a document reference the API sends either as an id string, as a
// populated object with an _id, or as null
type Ref string

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}
	var doc struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*r = Ref(doc.ID)
	return nil
}

// Usuario is the API's user document
type Usuario struct {
	ID         string `json:"_id"`
	Nombre     string `json:"nombre"`
	Apellidos  string `json:"apellidos"`
	Email      string `json:"email"`
	Imagen     string `json:"imagen"`
	Business   Ref    `json:"business"`
	Workcenter Ref    `json:"workcenter"`
	Role       string `json:"role"`
}

// ToUser maps the API document onto the console profile. Exp is left unset.
func (u Usuario) ToUser() *users.User {
	return &users.User{
		ID:           u.ID,
		GivenName:    u.Nombre,
		Surname:      u.Apellidos,
		Email:        u.Email,
		AvatarURL:    u.Imagen,
		BusinessID:   string(u.Business),
		WorkcenterID: string(u.Workcenter),
		Role:         users.RoleType(u.Role),
	}
}

type LoginRequest struct {
	Correo   string `json:"correo"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string  `json:"token"`
	Usuario Usuario `json:"usuario"`
	Message string  `json:"message"`
}

type SignUpRequest struct {
	Nombre    string `json:"nombre"`
	Apellidos string `json:"apellidos"`
	Correo    string `json:"correo"`
	Terms     bool   `json:"terms"`
}

type RegisterPasswordRequest struct {
	Usuario  string `json:"usuario"`
	Password string `json:"password"`
}

// MessageResponse is the body of calls that only report an outcome
type MessageResponse struct {
	Message string `json:"message"`
}

// PersonType is the SAT taxpayer kind chosen during account setup
type PersonType string

const (
	PersonaFisica PersonType = "persona_fisica"
	PersonaMoral  PersonType = "persona_moral"
)

// Valid reports whether p is a known person type
func (p PersonType) Valid() bool {
	return p == PersonaFisica || p == PersonaMoral
}

// Label is the value the business endpoint expects
func (p PersonType) Label() string {
	if p == PersonaMoral {
		return "Persona Moral"
	}
	return "Persona Física"
}

// Endpoint is the tax-regime catalog path segment
func (p PersonType) Endpoint() string {
	if p == PersonaMoral {
		return "persona-moral"
	}
	return "persona-fisica"
}

type BusinessRequest struct {
	TipoPersona   string `json:"tipo_persona"`
	RFC           string `json:"rfc"`
	Nombre        string `json:"nombre"`
	Phone         string `json:"phone"`
	RegimenFiscal string `json:"regimenFiscal"`
}

type BusinessResponse struct {
	Business struct {
		ID string `json:"_id"`
	} `json:"business"`
	Message string `json:"message"`
}

// TaxRegime is one option of the SAT tax-regime catalog
type TaxRegime struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
