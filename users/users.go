package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// RoleType is the role the billing API assigns to a console user
type RoleType string

const (
	// RoleAdmin owns the business account and must complete its tax profile
	RoleAdmin RoleType = "Admin"
	// RoleMember works inside a business created by an admin
	RoleMember RoleType = "Member"
)

// User is the profile of the signed-in operator. The JSON shape matches the
// persisted cookie record the dashboard has always written.
type User struct {
	ID           string   `json:"id"`
	GivenName    string   `json:"nombre"`
	Surname      string   `json:"apellidos"`
	Email        string   `json:"email"`
	AvatarURL    string   `json:"imagen"`
	BusinessID   string   `json:"business"`
	WorkcenterID string   `json:"workcenter"`
	Role         RoleType `json:"role"`
	Exp          int64    `json:"exp"` // Absolute expiry in epoch milliseconds
}

// HasBusiness reports whether the tax/business profile has been completed
func (u *User) HasBusiness() bool {
	return u != nil && strings.TrimSpace(u.BusinessID) != ""
}

// IsAdmin reports whether the user holds the administrative role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// FullName returns the display name
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.GivenName + " " + u.Surname)
}

// ExpiresAt returns Exp as a time. The zero time is returned when Exp is unset.
func (u *User) ExpiresAt() time.Time {
	if u == nil || u.Exp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(u.Exp)
}

// Expired reports whether the profile's own expiry has passed
func (u *User) Expired(now time.Time) bool {
	if u == nil || u.Exp == 0 {
		return false
	}
	return u.Exp < now.UnixMilli()
}

// WithBusiness returns a copy of the user linked to businessID
func (u User) WithBusiness(businessID string) *User {
	u.BusinessID = businessID
	return &u
}

// Clone returns a copy that callers may mutate freely
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// ValidatePasswordStrength checks the activation password rules:
// - At least 8 characters long
// - Contains an uppercase letter
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len([]rune(password)) < 8 {
		return fmt.Errorf("al menos 8 caracteres")
	}

	var (
		hasUpper  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		}
		if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("una letra mayúscula")
	}
	if !hasNumber {
		return fmt.Errorf("un número")
	}
	return nil
}
