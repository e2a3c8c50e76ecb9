// Package sqlite implementa el almacén local de registros sobre un archivo SQLite
// (driver puro Go modernc.org/sqlite, acceso vía sqlx).
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/repository"
)

var _ repository.RecordStore = (*RecordStore)(nil)

const driverName = "sqlite"

// RecordStore una tabla por colección: (id TEXT PRIMARY KEY, data TEXT JSON, updated_at).
type RecordStore struct {
	path string

	mu sync.Mutex
	db *sqlx.DB
}

// NewRecordStore construye el adaptador; el archivo se abre en Initialize.
func NewRecordStore(path string) *RecordStore {
	return &RecordStore{path: path}
}

// Initialize abre el archivo (si aún no está abierto) y crea las tablas que falten.
// Es idempotente.
func (s *RecordStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		dsn := s.path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		db, err := sqlx.Open(driverName, dsn)
		if err != nil {
			return fmt.Errorf("%w: abrir %s: %v", domain.ErrStoreUnavailable, s.path, err)
		}
		// SQLite admite un solo escritor; una conexión evita SQLITE_BUSY entre goroutines.
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return fmt.Errorf("%w: ping %s: %v", domain.ErrStoreUnavailable, s.path, err)
		}
		s.db = db
	}

	for _, c := range repository.Collections {
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, c)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("%w: crear colección %s: %v", domain.ErrStoreUnavailable, c, err)
		}
	}
	return nil
}

// GetAll devuelve los documentos JSON de la colección.
func (s *RecordStore) GetAll(ctx context.Context, c repository.Collection) ([]json.RawMessage, error) {
	db, err := s.conn(c)
	if err != nil {
		return nil, err
	}
	var rows []string
	if err := db.SelectContext(ctx, &rows, fmt.Sprintf(`SELECT data FROM %s`, c)); err != nil {
		return nil, fmt.Errorf("listar %s: %w", c, err)
	}
	out := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, json.RawMessage(r))
	}
	return out, nil
}

// Put inserta o reemplaza el documento con ese id.
func (s *RecordStore) Put(ctx context.Context, c repository.Collection, id string, value any) error {
	db, err := s.conn(c)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("serializar %s/%s: %w", c, id, err)
	}
	if _, err := db.ExecContext(ctx, upsertSQL(c), id, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("guardar %s/%s: %w", c, id, err)
	}
	return nil
}

// Delete elimina por id; no-op si no existe.
func (s *RecordStore) Delete(ctx context.Context, c repository.Collection, id string) error {
	db, err := s.conn(c)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, c), id); err != nil {
		return fmt.Errorf("eliminar %s/%s: %w", c, id, err)
	}
	return nil
}

// Replace vacía y repuebla las colecciones indicadas dentro de una transacción.
func (s *RecordStore) Replace(ctx context.Context, data map[repository.Collection][]repository.Record) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return domain.ErrNotInitialized
	}
	for c := range data {
		if !c.Valid() {
			return fmt.Errorf("%w: colección desconocida %q", domain.ErrInvalidInput, c)
		}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for c, records := range data {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, c)); err != nil {
			return fmt.Errorf("vaciar %s: %w", c, err)
		}
		for _, r := range records {
			raw, err := json.Marshal(r.Value)
			if err != nil {
				return fmt.Errorf("serializar %s/%s: %w", c, r.ID, err)
			}
			if _, err := tx.ExecContext(ctx, upsertSQL(c), r.ID, string(raw), now); err != nil {
				return fmt.Errorf("insertar %s/%s: %w", c, r.ID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close cierra el archivo.
func (s *RecordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *RecordStore) conn(c repository.Collection) (*sqlx.DB, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: colección desconocida %q", domain.ErrInvalidInput, c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, domain.ErrNotInitialized
	}
	return s.db, nil
}

func upsertSQL(c repository.Collection) string {
	return fmt.Sprintf(`INSERT INTO %s (id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`, c)
}
