package production

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/crs-vision/internal/application/ports"
	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// ClicheDesk control de clichês enviados a la clichería.
type ClicheDesk struct {
	store ports.DataStore
	now   func() time.Time
}

// NewClicheDesk construye el control de clichês.
func NewClicheDesk(store ports.DataStore) *ClicheDesk {
	return &ClicheDesk{store: store, now: time.Now}
}

// Send registra el envío de un clichê.
func (d *ClicheDesk) Send(actor entity.User, description, client string) (entity.ClicheItem, error) {
	if err := authorize(actor, CapCliches); err != nil {
		return entity.ClicheItem{}, err
	}
	description, client = strings.TrimSpace(description), strings.TrimSpace(client)
	item := entity.ClicheItem{
		Description: description,
		Client:      client,
		SentDate:    d.now().UTC(),
		Status:      entity.ClicheSent,
	}
	if err := item.Validate(); err != nil {
		return entity.ClicheItem{}, err
	}
	saved, err := d.store.SaveCliche(item)
	if err != nil {
		return entity.ClicheItem{}, err
	}
	_, err = d.store.AddLog("Clichê enviado", fmt.Sprintf("Envió clichê de %s a la clichería", client), actor.Name, entity.LogCreate)
	return saved, err
}

// Receive marca un clichê enviado como recibido en la fecha informada (obligatoria).
// La transición es única: un clichê ya recibido devuelve ErrInvalidTransition.
func (d *ClicheDesk) Receive(actor entity.User, id, date string) (entity.ClicheItem, error) {
	if err := authorize(actor, CapCliches); err != nil {
		return entity.ClicheItem{}, err
	}
	item, ok := d.store.Cliche(id)
	if !ok {
		return entity.ClicheItem{}, fmt.Errorf("%w: clichê %s", domain.ErrNotFound, id)
	}
	if item.Status != entity.ClicheSent {
		return entity.ClicheItem{}, fmt.Errorf("%w: el clichê ya fue recibido", domain.ErrInvalidTransition)
	}
	received, err := ParseCalendarDate(date)
	if err != nil {
		return entity.ClicheItem{}, err
	}
	item.Status = entity.ClicheReceived
	item.ReceivedDate = &received

	saved, err := d.store.SaveCliche(item)
	if err != nil {
		return entity.ClicheItem{}, err
	}
	_, err = d.store.AddLog("Clichê recibido", "Recibió clichê de "+saved.Client, actor.Name, entity.LogUpdate)
	return saved, err
}

// Pending clichês en la clichería.
func Pending(items []entity.ClicheItem) []entity.ClicheItem {
	var out []entity.ClicheItem
	for _, it := range items {
		if it.Status == entity.ClicheSent {
			out = append(out, it)
		}
	}
	return out
}

// Received clichês recibidos, el más reciente primero.
func Received(items []entity.ClicheItem) []entity.ClicheItem {
	var out []entity.ClicheItem
	for _, it := range items {
		if it.Status == entity.ClicheReceived && it.ReceivedDate != nil {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReceivedDate.After(*out[j].ReceivedDate)
	})
	return out
}
