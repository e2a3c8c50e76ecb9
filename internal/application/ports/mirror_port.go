package ports

import (
	"context"

	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// MirrorClient define el puerto de salida hacia el servidor espejo de la red local.
// Con host vacío el adaptador queda deshabilitado: FetchSnapshot falla de inmediato y
// los envíos son no-ops. Ningún método reintenta.
type MirrorClient interface {
	Enabled() bool
	Host() string

	// FetchSnapshot descarga el dataset completo (GET /api/sync).
	FetchSnapshot(ctx context.Context) (*entity.Dataset, error)
	// PushUsers reemplaza la colección completa de usuarios en el servidor.
	PushUsers(ctx context.Context, users []entity.User) error
	// PushOrder y PushCliche hacen upsert por id de un único registro.
	PushOrder(ctx context.Context, order entity.Order) error
	PushCliche(ctx context.Context, item entity.ClicheItem) error
	DeleteOrder(ctx context.Context, id string) error
	// PushLog agrega una entrada; el servidor la antepone y recorta a 1000.
	PushLog(ctx context.Context, entry entity.ActivityLog) error
}
