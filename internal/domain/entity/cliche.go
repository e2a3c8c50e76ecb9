package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/crs-vision/internal/domain"
)

// Estados de un clichê.
const (
	ClicheSent     = "sent"
	ClicheReceived = "received"
)

// ClicheItem clichê (placa de impresión) enviado a la clichería y recibido de vuelta.
// Transición única: sent -> received, con fecha informada por el operador.
type ClicheItem struct {
	ID           string     `json:"id"`
	Description  string     `json:"description"`
	Client       string     `json:"client"`
	SentDate     time.Time  `json:"sentDate"`
	ReceivedDate *time.Time `json:"receivedDate,omitempty"`
	Status       string     `json:"status"`
}

// Validate exige que Status sea received si y solo si existe ReceivedDate.
func (c ClicheItem) Validate() error {
	if c.Description == "" || c.Client == "" {
		return fmt.Errorf("%w: descripción y cliente requeridos", domain.ErrInvalidInput)
	}
	switch c.Status {
	case ClicheSent:
		if c.ReceivedDate != nil {
			return fmt.Errorf("%w: clichê enviado no puede tener fecha de recepción", domain.ErrInvalidInput)
		}
	case ClicheReceived:
		if c.ReceivedDate == nil || c.ReceivedDate.IsZero() {
			return fmt.Errorf("%w: clichê recibido requiere fecha de recepción", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: estado de clichê desconocido %q", domain.ErrInvalidInput, c.Status)
	}
	return nil
}
