package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/crs-vision/internal/domain"
)

// Prioridades de una orden de corte (OC).
const (
	PriorityNormal = "normal"
	PriorityMedium = "medium"
	PriorityUrgent = "urgent"
)

// Estados de producción de una OC.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusStopped    = "stopped"
)

// DateLayout formato de fecha de calendario (sin hora) usado en DueDate.
const DateLayout = "2006-01-02"

// Order representa una orden de producción del tablero.
type Order struct {
	ID          string     `json:"id"`
	OCNumber    string     `json:"ocNumber"`
	Client      string     `json:"client"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     string     `json:"dueDate"` // YYYY-MM-DD
	CreatedAt   time.Time  `json:"createdAt"`
	Salesperson string     `json:"salesperson"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	CompletedBy string     `json:"completedBy,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// PriorityRank orden relativo de la prioridad (mayor = más urgente, 0 = desconocida).
func PriorityRank(p string) int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityMedium:
		return 2
	case PriorityNormal:
		return 1
	}
	return 0
}

// ValidStatus indica si el estado es conocido.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusStopped:
		return true
	}
	return false
}

// DueDay devuelve la fecha de entrega como día (UTC). Acepta también timestamps ISO
// heredados, de los que solo se toma la parte de fecha.
func (o Order) DueDay() (time.Time, error) {
	s := o.DueDate
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	return time.Parse(DateLayout, s)
}

// Validate comprueba campos obligatorios, enumerados y la regla de conclusión:
// una OC concluida tiene CompletedAt y su día no es anterior al día de creación.
// Se comparan días calendario en UTC, no instantes: una conclusión registrada el
// mismo día a una hora anterior a CreatedAt es válida.
func (o Order) Validate() error {
	switch {
	case o.OCNumber == "":
		return fmt.Errorf("%w: número de OC requerido", domain.ErrInvalidInput)
	case o.Client == "":
		return fmt.Errorf("%w: cliente requerido", domain.ErrInvalidInput)
	case o.Salesperson == "":
		return fmt.Errorf("%w: vendedor requerido", domain.ErrInvalidInput)
	case PriorityRank(o.Priority) == 0:
		return fmt.Errorf("%w: prioridad desconocida %q", domain.ErrInvalidInput, o.Priority)
	case !ValidStatus(o.Status):
		return fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, o.Status)
	}
	if _, err := o.DueDay(); err != nil {
		return fmt.Errorf("%w: fecha de entrega inválida %q", domain.ErrInvalidInput, o.DueDate)
	}
	if o.Status == StatusCompleted {
		if o.CompletedAt == nil || o.CompletedAt.IsZero() {
			return fmt.Errorf("%w: una OC concluida requiere fecha de conclusión", domain.ErrInvalidInput)
		}
		if !o.CreatedAt.IsZero() && day(*o.CompletedAt).Before(day(o.CreatedAt)) {
			return fmt.Errorf("%w: la conclusión no puede ser anterior a la creación", domain.ErrInvalidInput)
		}
	}
	return nil
}

// day trunca al día calendario UTC.
func day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
