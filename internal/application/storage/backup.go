package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/domain/repository"
)

// BackupErrorKind tipo de falla de validación de un respaldo.
type BackupErrorKind string

const (
	BackupMalformed     BackupErrorKind = "malformed"      // no es un objeto JSON
	BackupMissingField  BackupErrorKind = "missing"        // campo obligatorio ausente o null
	BackupNotAList      BackupErrorKind = "not-a-list"     // el campo no es un arreglo
	BackupInvalidRecord BackupErrorKind = "invalid-record" // el elemento no decodifica como registro
	BackupMissingID     BackupErrorKind = "missing-id"     // el registro no tiene id
)

// BackupFieldError falla puntual de validación. Index es -1 para fallas del campo completo.
// Todas envuelven domain.ErrInvalidBackup.
type BackupFieldError struct {
	Field string
	Index int
	Kind  BackupErrorKind
	Err   error
}

func (e *BackupFieldError) Error() string {
	where := e.Field
	if e.Index >= 0 {
		where = fmt.Sprintf("%s[%d]", e.Field, e.Index)
	}
	if where == "" {
		where = "archivo"
	}
	msg := fmt.Sprintf("respaldo inválido: %s: %s", where, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BackupFieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrInvalidBackup}
	}
	return []error{domain.ErrInvalidBackup, e.Err}
}

// BackupFileName nombre sugerido del archivo de respaldo.
func BackupFileName(t time.Time) string {
	return "crs_vision_backup_" + t.UTC().Format("2006-01-02") + ".json"
}

// CreateBackup serializa el caché completo (JSON indentado) con marca de tiempo y versión.
func (s *Service) CreateBackup(w io.Writer) error {
	b := entity.NewBackup(s.Snapshot(), s.now())
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("escribir respaldo: %w", err)
	}
	return nil
}

// ParseBackup valida y decodifica un respaldo. users es obligatorio; orders, cliches y logs
// pueden faltar (se toman vacíos). Todas las fallas se reportan juntas (errors.Join).
func ParseBackup(r io.Reader) (entity.Dataset, error) {
	var ds entity.Dataset
	raw, err := io.ReadAll(r)
	if err != nil {
		return ds, &BackupFieldError{Index: -1, Kind: BackupMalformed, Err: err}
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return ds, &BackupFieldError{Index: -1, Kind: BackupMalformed, Err: err}
	}

	var errs []error
	ds.Users = decodeField[entity.User](top, "users", true, func(u entity.User) string { return u.ID }, &errs)
	ds.Orders = decodeField[entity.Order](top, "orders", false, func(o entity.Order) string { return o.ID }, &errs)
	ds.Cliches = decodeField[entity.ClicheItem](top, "cliches", false, func(c entity.ClicheItem) string { return c.ID }, &errs)
	ds.Logs = decodeField[entity.ActivityLog](top, "logs", false, func(l entity.ActivityLog) string { return l.ID }, &errs)
	if len(errs) > 0 {
		return entity.Dataset{}, errors.Join(errs...)
	}
	return ds.Normalize(), nil
}

func decodeField[T any](top map[string]json.RawMessage, field string, required bool, id func(T) string, errs *[]error) []T {
	raw, ok := top[field]
	if !ok || isNull(raw) {
		if required {
			*errs = append(*errs, &BackupFieldError{Field: field, Index: -1, Kind: BackupMissingField})
		}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		*errs = append(*errs, &BackupFieldError{Field: field, Index: -1, Kind: BackupNotAList})
		return nil
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			*errs = append(*errs, &BackupFieldError{Field: field, Index: i, Kind: BackupInvalidRecord, Err: err})
			continue
		}
		if id(v) == "" {
			*errs = append(*errs, &BackupFieldError{Field: field, Index: i, Kind: BackupMissingID})
			continue
		}
		out = append(out, v)
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// RestoreBackup valida el archivo y, si es válido, reemplaza el caché completo y reproduce
// todos los registros en el destino activo:
//   - ModeRemote: lista completa de usuarios + un envío por OC y por clichê.
//   - ModeLocal: vacía las cuatro colecciones e inserta todo en una transacción.
//
// Una falla de validación deja todo intacto. Una falla durante la reproducción deja el
// caché ya reemplazado y devuelve ErrRestoreIncomplete: caché y destino pueden diferir.
func (s *Service) RestoreBackup(ctx context.Context, r io.Reader) error {
	if s.State() != StateReady {
		return domain.ErrNotInitialized
	}
	ds, err := ParseBackup(r)
	if err != nil {
		return err
	}

	result := make(chan error, 1)
	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.replaceCacheLocked(ds)
	restored := entity.Dataset{
		Users:   append([]entity.User{}, s.users...),
		Orders:  append([]entity.Order{}, s.orders...),
		Cliches: append([]entity.ClicheItem{}, s.cliches...),
		Logs:    append([]entity.ActivityLog{}, s.logs...),
	}
	// La reproducción pasa por la cola: queda después de toda escritura previa.
	replay := s.replayLocal(restored)
	if s.mode == ModeRemote {
		replay = s.replayRemote(restored)
	}
	accepted := s.queue.enqueue(task{op: "restoreBackup", run: func(ctx context.Context) error {
		err := replay(ctx)
		result <- err
		return err
	}})
	mode := s.mode
	s.mu.Unlock()

	if !accepted {
		return domain.ErrNotInitialized
	}
	select {
	case err := <-result:
		if err != nil {
			return errors.Join(domain.ErrRestoreIncomplete, err)
		}
		s.log.Info().Str("mode", string(mode)).Int("orders", len(restored.Orders)).Msg("respaldo restaurado")
		return nil
	case <-ctx.Done():
		return errors.Join(domain.ErrRestoreIncomplete, ctx.Err())
	}
}

func (s *Service) replayLocal(ds entity.Dataset) func(context.Context) error {
	data := map[repository.Collection][]repository.Record{
		repository.CollectionUsers:   records(ds.Users, func(u entity.User) string { return u.ID }),
		repository.CollectionOrders:  records(ds.Orders, func(o entity.Order) string { return o.ID }),
		repository.CollectionCliches: records(ds.Cliches, func(c entity.ClicheItem) string { return c.ID }),
		repository.CollectionLogs:    records(ds.Logs, func(l entity.ActivityLog) string { return l.ID }),
	}
	return func(ctx context.Context) error { return s.local.Replace(ctx, data) }
}

// replayRemote envía todo aunque algún envío falle; devuelve las fallas juntas.
func (s *Service) replayRemote(ds entity.Dataset) func(context.Context) error {
	return func(ctx context.Context) error {
		var errs []error
		if err := s.mirror.PushUsers(ctx, ds.Users); err != nil {
			errs = append(errs, err)
		}
		for _, o := range ds.Orders {
			if err := s.mirror.PushOrder(ctx, o); err != nil {
				errs = append(errs, fmt.Errorf("orden %s: %w", o.ID, err))
			}
		}
		for _, c := range ds.Cliches {
			if err := s.mirror.PushCliche(ctx, c); err != nil {
				errs = append(errs, fmt.Errorf("clichê %s: %w", c.ID, err))
			}
		}
		return errors.Join(errs...)
	}
}

func records[T any](items []T, id func(T) string) []repository.Record {
	out := make([]repository.Record, 0, len(items))
	for _, it := range items {
		out = append(out, repository.Record{ID: id(it), Value: it})
	}
	return out
}
