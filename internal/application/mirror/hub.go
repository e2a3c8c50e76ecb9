// Package mirror contiene el estado compartido del servidor espejo de la red local:
// un único dataset en memoria, protegido por mutex y reescrito en disco tras cada mutación.
// Sin versiones ni detección de conflictos: la última escritura gana.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/domain/repository"
)

// Hub dataset compartido por todos los clientes.
type Hub struct {
	repo repository.DatasetRepository
	log  zerolog.Logger

	mu sync.Mutex
	db entity.Dataset
}

// NewHub construye el hub con los datos iniciales; Load los reemplaza por los del archivo.
func NewHub(repo repository.DatasetRepository, log zerolog.Logger) *Hub {
	return &Hub{
		repo: repo,
		log:  log.With().Str("component", "mirror_hub").Logger(),
		db:   InitialData(),
	}
}

// InitialData dataset de una instalación nueva: solo el administrador inicial.
func InitialData() entity.Dataset {
	return entity.Dataset{Users: []entity.User{entity.BootstrapAdmin()}}.Normalize()
}

// Load carga el archivo. Si no existe lo crea con los datos iniciales; si está corrupto
// lo recrea. Solo falla si no puede escribir.
func (h *Hub) Load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, err := h.repo.Load(ctx)
	switch {
	case err == nil:
		h.db = *d
		h.log.Info().Int("users", len(d.Users)).Int("orders", len(d.Orders)).Msg("base de datos cargada")
		return nil
	case errors.Is(err, domain.ErrNotFound):
		h.log.Info().Msg("base de datos inexistente, creando con datos iniciales")
	default:
		h.log.Error().Err(err).Msg("error al leer la base de datos, recreando")
	}
	h.db = InitialData()
	return h.repo.Save(ctx, h.db)
}

// Snapshot copia del dataset completo (GET /api/sync).
func (h *Hub) Snapshot() entity.Dataset {
	h.mu.Lock()
	defer h.mu.Unlock()
	return entity.Dataset{
		Users:   append([]entity.User{}, h.db.Users...),
		Orders:  append([]entity.Order{}, h.db.Orders...),
		Cliches: append([]entity.ClicheItem{}, h.db.Cliches...),
		Logs:    append([]entity.ActivityLog{}, h.db.Logs...),
	}
}

// ReplaceUsers reemplaza la colección completa de usuarios.
func (h *Hub) ReplaceUsers(ctx context.Context, users []entity.User) error {
	return h.mutate(ctx, func(db *entity.Dataset) error {
		db.Users = append([]entity.User{}, users...)
		return nil
	})
}

// UpsertOrder reemplaza la OC con el mismo id o la agrega al final.
func (h *Hub) UpsertOrder(ctx context.Context, o entity.Order) error {
	if o.ID == "" {
		return fmt.Errorf("%w: OC sin id", domain.ErrInvalidInput)
	}
	return h.mutate(ctx, func(db *entity.Dataset) error {
		for i := range db.Orders {
			if db.Orders[i].ID == o.ID {
				db.Orders[i] = o
				return nil
			}
		}
		db.Orders = append(db.Orders, o)
		return nil
	})
}

// DeleteOrder elimina la OC; no-op si no existe.
func (h *Hub) DeleteOrder(ctx context.Context, id string) error {
	return h.mutate(ctx, func(db *entity.Dataset) error {
		kept := db.Orders[:0:0]
		for _, o := range db.Orders {
			if o.ID != id {
				kept = append(kept, o)
			}
		}
		db.Orders = kept
		return nil
	})
}

// UpsertCliche reemplaza el clichê con el mismo id o lo agrega al final.
func (h *Hub) UpsertCliche(ctx context.Context, c entity.ClicheItem) error {
	if c.ID == "" {
		return fmt.Errorf("%w: clichê sin id", domain.ErrInvalidInput)
	}
	return h.mutate(ctx, func(db *entity.Dataset) error {
		for i := range db.Cliches {
			if db.Cliches[i].ID == c.ID {
				db.Cliches[i] = c
				return nil
			}
		}
		db.Cliches = append(db.Cliches, c)
		return nil
	})
}

// PrependLog antepone la entrada y recorta a MaxActivityLogs.
func (h *Hub) PrependLog(ctx context.Context, l entity.ActivityLog) error {
	return h.mutate(ctx, func(db *entity.Dataset) error {
		logs := make([]entity.ActivityLog, 0, len(db.Logs)+1)
		logs = append(logs, l)
		logs = append(logs, db.Logs...)
		if len(logs) > entity.MaxActivityLogs {
			logs = logs[:entity.MaxActivityLogs]
		}
		db.Logs = logs
		return nil
	})
}

// mutate aplica fn y reescribe el archivo. Un error de escritura no revierte la memoria.
func (h *Hub) mutate(ctx context.Context, fn func(db *entity.Dataset) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := fn(&h.db); err != nil {
		return err
	}
	if err := h.repo.Save(ctx, h.db); err != nil {
		h.log.Error().Err(err).Msg("no se pudo guardar la base de datos")
		return err
	}
	return nil
}
