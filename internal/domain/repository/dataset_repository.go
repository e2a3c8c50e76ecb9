package repository

import (
	"context"

	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// DatasetRepository define el puerto de persistencia del servidor espejo (DIP):
// el dataset completo se lee y se reescribe entero.
type DatasetRepository interface {
	// Load devuelve domain.ErrNotFound si todavía no existe.
	Load(ctx context.Context) (*entity.Dataset, error)
	Save(ctx context.Context, d entity.Dataset) error
}
