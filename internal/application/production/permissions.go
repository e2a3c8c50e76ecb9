// Package production contiene las reglas de negocio de las vistas de planta: tablero de OCs,
// cronograma semanal, control de clichês, gestión de usuarios y panel de desempeño.
package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// Capability acción o vista protegida por rol.
type Capability string

const (
	CapViewOrders  Capability = "orders.view"
	CapEditOrders  Capability = "orders.edit"
	CapSchedule    Capability = "schedule"
	CapCliches     Capability = "cliches"
	CapUsers       Capability = "users"
	CapPerformance Capability = "performance"
	CapBackup      Capability = "backup"
)

var rolePermissions = map[string][]Capability{
	entity.RoleAdmin:       {CapViewOrders, CapEditOrders, CapSchedule, CapCliches, CapUsers, CapPerformance, CapBackup},
	entity.RoleOperator:    {CapViewOrders, CapEditOrders, CapSchedule, CapCliches},
	entity.RoleSalesperson: {CapViewOrders},
}

// Can indica si el rol tiene la capacidad.
func Can(role string, c Capability) bool {
	for _, allowed := range rolePermissions[role] {
		if allowed == c {
			return true
		}
	}
	return false
}

// Capabilities devuelve las capacidades del rol (vacío si es desconocido).
func Capabilities(role string) []Capability {
	return append([]Capability(nil), rolePermissions[role]...)
}

func authorize(actor entity.User, c Capability) error {
	if !Can(actor.Role, c) {
		return fmt.Errorf("%w: %s (%s)", domain.ErrForbidden, c, actor.Role)
	}
	return nil
}

// ParseCalendarDate interpreta una fecha informada por el operador. Una fecha sin hora
// (YYYY-MM-DD) se fija a las 12:00 UTC para que ninguna zona horaria la corra de día;
// un timestamp RFC 3339 se respeta.
func ParseCalendarDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: fecha requerida", domain.ErrInvalidInput)
	}
	if strings.Contains(s, "T") {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: fecha inválida %q", domain.ErrInvalidInput, s)
		}
		return t.UTC(), nil
	}
	d, err := time.Parse(entity.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha inválida %q", domain.ErrInvalidInput, s)
	}
	return d.Add(12 * time.Hour), nil
}
