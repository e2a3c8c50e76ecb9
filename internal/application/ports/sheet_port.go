package ports

import (
	"context"
	"time"

	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// SheetRenderer genera la hoja de producción imprimible (la lista del tablero ya filtrada y ordenada).
type SheetRenderer interface {
	RenderProductionSheet(ctx context.Context, title string, orders []entity.Order, printedAt time.Time) ([]byte, error)
}
