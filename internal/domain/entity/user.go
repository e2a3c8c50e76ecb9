package entity

import (
	"fmt"

	"github.com/jhoicas/crs-vision/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Roles válidos para User.
const (
	RoleAdmin       = "admin"
	RoleOperator    = "operator"
	RoleSalesperson = "salesperson"
)

// BootstrapAdminID id del administrador sembrado en una instalación vacía. Nunca se elimina.
const BootstrapAdminID = "u1"

// User representa un usuario de la planta. La contraseña se guarda en texto plano:
// la autenticación es una comparación exacta contra el caché.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Role          string `json:"role"` // admin, operator, salesperson
	Password      string `json:"password,omitempty"`
	Avatar        string `json:"avatar,omitempty"` // token de gradiente o imagen embebida (data URL)
	IsCustomImage bool   `json:"isCustomImage,omitempty"`
}

// BootstrapAdmin devuelve el administrador inicial.
func BootstrapAdmin() User {
	return User{
		ID:       BootstrapAdminID,
		Name:     "Weverton Ergang",
		Role:     RoleAdmin,
		Password: "938567",
		Avatar:   "from-gray-700 to-black",
	}
}

// IsBootstrap indica si el usuario es el administrador protegido.
func (u User) IsBootstrap() bool { return u.ID == BootstrapAdminID }

// ValidRole indica si el rol es conocido.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOperator, RoleSalesperson:
		return true
	}
	return false
}

// Validate comprueba los campos obligatorios de un usuario.
func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: usuario sin id", domain.ErrInvalidInput)
	}
	if u.Name == "" {
		return fmt.Errorf("%w: nombre de usuario requerido", domain.ErrInvalidInput)
	}
	if !ValidRole(u.Role) {
		return fmt.Errorf("%w: rol desconocido %q", domain.ErrInvalidInput, u.Role)
	}
	return nil
}

// NameKey forma canónica de un nombre para comparaciones sin distinción de mayúsculas:
// normalización NFC más case folding Unicode ("JOSÉ" y "josé" comparan iguales).
func NameKey(name string) string {
	return cases.Fold().String(norm.NFC.String(name))
}

// SameName compara dos nombres ignorando mayúsculas.
func SameName(a, b string) bool {
	return NameKey(a) == NameKey(b)
}
