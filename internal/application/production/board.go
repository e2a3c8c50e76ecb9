package production

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/crs-vision/internal/application/ports"
	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// Board casos de uso del tablero de OCs.
type Board struct {
	store ports.DataStore
	sheet ports.SheetRenderer
	now   func() time.Time
}

// NewBoard construye el tablero. sheet puede ser nil si no se imprime.
func NewBoard(store ports.DataStore, sheet ports.SheetRenderer) *Board {
	return &Board{store: store, sheet: sheet, now: time.Now}
}

// Counters totales rápidos de una lista de OCs.
type Counters struct {
	Total      int `json:"total"`
	Urgent     int `json:"urgent"`
	InProgress int `json:"in_progress"`
}

// List devuelve las OCs visibles para user que coinciden con search, en orden de tablero.
func (b *Board) List(user entity.User, search string) []entity.Order {
	return VisibleOrders(user, b.store.Orders(), search)
}

// Save crea o actualiza una OC y registra la actividad.
// Una OC no concluida pierde CompletedAt; una concluida lo exige.
func (b *Board) Save(actor entity.User, o entity.Order) (entity.Order, error) {
	if err := authorize(actor, CapEditOrders); err != nil {
		return entity.Order{}, err
	}
	o.OCNumber = strings.TrimSpace(o.OCNumber)
	o.Client = strings.TrimSpace(o.Client)
	o.Salesperson = strings.TrimSpace(o.Salesperson)
	if o.Priority == "" {
		o.Priority = entity.PriorityNormal
	}
	if o.Status == "" {
		o.Status = entity.StatusPending
	}
	if o.Status != entity.StatusCompleted {
		o.CompletedAt = nil
		o.CompletedBy = ""
	} else if o.CompletedBy == "" {
		o.CompletedBy = actor.ID
	}

	existing, isUpdate := entity.Order{}, false
	if o.ID != "" {
		existing, isUpdate = b.store.Order(o.ID)
	}
	check := o
	if isUpdate {
		check.CreatedAt = existing.CreatedAt
	} else if check.CreatedAt.IsZero() {
		check.CreatedAt = b.now()
	}
	if strings.TrimSpace(o.Description) == "" {
		return entity.Order{}, fmt.Errorf("%w: descripción requerida", domain.ErrInvalidInput)
	}
	if err := check.Validate(); err != nil {
		return entity.Order{}, err
	}

	saved, err := b.store.SaveOrder(o)
	if err != nil {
		return entity.Order{}, err
	}
	if isUpdate {
		_, err = b.store.AddLog("OC actualizada", fmt.Sprintf("Editó la OC #%s - %s", saved.OCNumber, saved.Client), actor.Name, entity.LogUpdate)
	} else {
		_, err = b.store.AddLog("Nueva OC creada", fmt.Sprintf("Creó la OC #%s - %s", saved.OCNumber, saved.Client), actor.Name, entity.LogCreate)
	}
	return saved, err
}

// Delete elimina una OC y registra la actividad.
func (b *Board) Delete(actor entity.User, id string) error {
	if err := authorize(actor, CapEditOrders); err != nil {
		return err
	}
	o, ok := b.store.Order(id)
	if !ok {
		return fmt.Errorf("%w: OC %s", domain.ErrNotFound, id)
	}
	if err := b.store.DeleteOrder(id); err != nil {
		return err
	}
	_, err := b.store.AddLog("OC eliminada", "Eliminó la OC #"+o.OCNumber, actor.Name, entity.LogDelete)
	return err
}

// PrintSheet genera la hoja de producción de lo que user ve en el tablero.
func (b *Board) PrintSheet(ctx context.Context, user entity.User, search string) ([]byte, error) {
	if b.sheet == nil {
		return nil, fmt.Errorf("%w: impresión no configurada", domain.ErrInvalidInput)
	}
	return b.sheet.RenderProductionSheet(ctx, user.Name, b.List(user, search), b.now())
}

// VisibleOrders aplica la regla de visibilidad por rol, la búsqueda y el orden del tablero.
// Un vendedor solo ve las OCs cuyo vendedor coincide con su nombre (sin espacios extremos
// ni distinción de mayúsculas). La búsqueda compara cliente, número de OC y descripción.
func VisibleOrders(user entity.User, orders []entity.Order, search string) []entity.Order {
	owner := ""
	if user.Role == entity.RoleSalesperson {
		owner = entity.NameKey(strings.TrimSpace(user.Name))
	}
	term := entity.NameKey(strings.TrimSpace(search))

	out := make([]entity.Order, 0, len(orders))
	for _, o := range orders {
		if user.Role == entity.RoleSalesperson && entity.NameKey(strings.TrimSpace(o.Salesperson)) != owner {
			continue
		}
		if term != "" && !matches(o, term) {
			continue
		}
		out = append(out, o)
	}
	SortOrders(out)
	return out
}

func matches(o entity.Order, term string) bool {
	for _, field := range []string{o.Client, o.OCNumber, o.Description} {
		if strings.Contains(entity.NameKey(field), term) {
			return true
		}
	}
	return false
}

// SortOrders ordena urgent > medium > normal y, dentro de la misma prioridad, por entrega ascendente.
func SortOrders(orders []entity.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		ri, rj := entity.PriorityRank(orders[i].Priority), entity.PriorityRank(orders[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return dueKey(orders[i]) < dueKey(orders[j])
	})
}

// CountersOf cuenta total, urgentes y en producción.
func CountersOf(orders []entity.Order) Counters {
	c := Counters{Total: len(orders)}
	for _, o := range orders {
		if o.Priority == entity.PriorityUrgent {
			c.Urgent++
		}
		if o.Status == entity.StatusInProgress {
			c.InProgress++
		}
	}
	return c
}

// dueKey parte de fecha (YYYY-MM-DD) de la entrega; el orden lexicográfico es el cronológico.
func dueKey(o entity.Order) string {
	if len(o.DueDate) > len(entity.DateLayout) {
		return o.DueDate[:len(entity.DateLayout)]
	}
	return o.DueDate
}
