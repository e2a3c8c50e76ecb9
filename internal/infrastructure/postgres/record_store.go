package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/repository"
)

var _ repository.RecordStore = (*RecordStore)(nil)

// RecordStore implementación del almacén de registros sobre PostgreSQL: una tabla JSONB
// por colección. Permite que varias estaciones compartan un mismo almacén "local".
type RecordStore struct {
	databaseURL string

	mu   sync.Mutex
	pool *pgxpool.Pool
}

// NewRecordStore construye el adaptador; la conexión se abre en Initialize.
func NewRecordStore(databaseURL string) *RecordStore {
	return &RecordStore{databaseURL: databaseURL}
}

// Initialize abre el pool (si hace falta) y crea las tablas que falten.
func (s *RecordStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool == nil {
		pool, err := NewPool(ctx, s.databaseURL)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		s.pool = pool
	}
	for _, c := range repository.Collections {
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS crs_%s (
			id TEXT PRIMARY KEY,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, c)
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("%w: crear colección %s: %v", domain.ErrStoreUnavailable, c, err)
		}
	}
	return nil
}

// GetAll devuelve los documentos de la colección.
func (s *RecordStore) GetAll(ctx context.Context, c repository.Collection) ([]json.RawMessage, error) {
	pool, err := s.conn(c)
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, fmt.Sprintf(`SELECT data FROM crs_%s`, c))
	if err != nil {
		return nil, fmt.Errorf("listar %s: %w", c, err)
	}
	defer rows.Close()
	var out []json.RawMessage
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c, err)
		}
		out = append(out, json.RawMessage(data))
	}
	return out, rows.Err()
}

// Put inserta o reemplaza por id.
func (s *RecordStore) Put(ctx context.Context, c repository.Collection, id string, value any) error {
	pool, err := s.conn(c)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("serializar %s/%s: %w", c, id, err)
	}
	if _, err := pool.Exec(ctx, upsertSQL(c), id, data); err != nil {
		return fmt.Errorf("guardar %s/%s: %w", c, id, err)
	}
	return nil
}

// Delete elimina por id; no-op si no existe.
func (s *RecordStore) Delete(ctx context.Context, c repository.Collection, id string) error {
	pool, err := s.conn(c)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf(`DELETE FROM crs_%s WHERE id = $1`, c), id); err != nil {
		return fmt.Errorf("eliminar %s/%s: %w", c, id, err)
	}
	return nil
}

// Replace vacía y repuebla las colecciones indicadas en una transacción.
func (s *RecordStore) Replace(ctx context.Context, data map[repository.Collection][]repository.Record) error {
	s.mu.Lock()
	pool := s.pool
	s.mu.Unlock()
	if pool == nil {
		return domain.ErrNotInitialized
	}
	for c := range data {
		if !c.Valid() {
			return fmt.Errorf("%w: colección desconocida %q", domain.ErrInvalidInput, c)
		}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for c, records := range data {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM crs_%s`, c)); err != nil {
			return fmt.Errorf("vaciar %s: %w", c, err)
		}
		for _, r := range records {
			raw, err := json.Marshal(r.Value)
			if err != nil {
				return fmt.Errorf("serializar %s/%s: %w", c, r.ID, err)
			}
			if _, err := tx.Exec(ctx, upsertSQL(c), r.ID, raw); err != nil {
				return fmt.Errorf("insertar %s/%s: %w", c, r.ID, err)
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close cierra el pool.
func (s *RecordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

func (s *RecordStore) conn(c repository.Collection) (*pgxpool.Pool, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: colección desconocida %q", domain.ErrInvalidInput, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return nil, domain.ErrNotInitialized
	}
	return s.pool, nil
}

func upsertSQL(c repository.Collection) string {
	return fmt.Sprintf(`
		INSERT INTO crs_%s (id, data, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`, c)
}
