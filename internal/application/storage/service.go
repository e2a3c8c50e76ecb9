// Package storage es la fachada de datos de la aplicación: mantiene en memoria las cuatro
// colecciones (fuente de verdad de todas las lecturas de la sesión) y replica cada mutación,
// en segundo plano, al almacén local o al servidor espejo, nunca a ambos.
//
// Ciclo de vida:
//
//	Uninitialized --Initialize--> Hydrating --> Ready (ModeRemote | ModeLocal) --Shutdown--> Closed
//
// El modo se fija al inicializar. Cambiar de servidor requiere Reinitialize.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/crs-vision/internal/application/ports"
	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/domain/repository"
)

// Verificar en tiempo de compilación que Service implementa DataStore.
var _ ports.DataStore = (*Service)(nil)

// Mode destino de persistencia de la sesión.
type Mode string

const (
	ModeNone   Mode = ""
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// State estado del ciclo de vida del servicio.
type State int

const (
	StateUninitialized State = iota
	StateHydrating
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateHydrating:
		return "hydrating"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Failure falla de una escritura en segundo plano. El caché ya refleja el cambio.
type Failure struct {
	Op   string
	Mode Mode
	Err  error
	At   time.Time
}

// Option configura el servicio.
type Option func(*Service)

// WithFailureHook registra un observador de fallas de persistencia (además del log).
// Se invoca desde el worker de escrituras: no debe bloquear.
func WithFailureHook(h func(Failure)) Option {
	return func(s *Service) { s.onFailure = h }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator reemplaza el generador de ids (tests).
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service fachada única de datos. Se construye una vez y se inyecta en los consumidores.
type Service struct {
	local   repository.RecordStore
	mirror  ports.MirrorClient
	baseLog zerolog.Logger
	log     zerolog.Logger
	opts    []Option

	now       func() time.Time
	newID     func() string
	onFailure func(Failure)

	mu      sync.RWMutex
	state   State
	mode    Mode
	users   []entity.User
	orders  []entity.Order
	cliches []entity.ClicheItem
	logs    []entity.ActivityLog

	queue *writeQueue
}

// NewService construye el servicio. mirror puede ser nil (equivale a sin servidor configurado).
func NewService(local repository.RecordStore, mirror ports.MirrorClient, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		local:   local,
		mirror:  mirror,
		baseLog: log,
		log:     log.With().Str("component", "storage").Logger(),
		opts:    opts,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize abre el almacén local y decide la fuente de hidratación.
// Un fallo del almacén local es fatal; un servidor espejo inaccesible solo degrada a ModeLocal.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateHydrating:
		s.mu.Unlock()
		return fmt.Errorf("%w: inicialización en curso", domain.ErrInvalidTransition)
	case StateClosed:
		s.mu.Unlock()
		return domain.ErrNotInitialized
	}
	s.state = StateHydrating
	s.mu.Unlock()

	if err := s.local.Initialize(ctx); err != nil {
		s.setState(StateUninitialized)
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		s.log.Error().Err(err).Msg("falla crítica al abrir el almacén local")
		return err
	}

	if s.mirror != nil && s.mirror.Enabled() {
		s.log.Info().Str("host", s.mirror.Host()).Msg("conectando al servidor espejo")
		ds, err := s.mirror.FetchSnapshot(ctx)
		if err == nil {
			s.mu.Lock()
			s.replaceCacheLocked(*ds)
			s.mode = ModeRemote
			s.queue = newWriteQueue(s.reportFailure)
			s.state = StateReady
			s.mu.Unlock()
			s.log.Info().Int("users", len(ds.Users)).Int("orders", len(ds.Orders)).Msg("sincronizado con la red local")
			return nil
		}
		s.log.Warn().Err(err).Msg("servidor espejo no disponible, usando datos locales")
	}

	ds, evicted, err := s.loadLocal(ctx)
	if err != nil {
		s.setState(StateUninitialized)
		return err
	}

	s.mu.Lock()
	s.replaceCacheLocked(ds)
	s.mode = ModeLocal
	s.queue = newWriteQueue(s.reportFailure)
	for _, id := range evicted {
		s.enqueueLocked("pruneLog", s.localDelete(repository.CollectionLogs, id), nil)
	}
	s.state = StateReady
	s.mu.Unlock()
	s.log.Info().Int("users", len(ds.Users)).Int("orders", len(ds.Orders)).Msg("datos locales cargados")
	return nil
}

// loadLocal lee las cuatro colecciones; siembra el administrador inicial si no hay usuarios.
// Devuelve además los ids de logs que exceden el tope y deben podarse del almacén.
func (s *Service) loadLocal(ctx context.Context) (entity.Dataset, []string, error) {
	var ds entity.Dataset
	var err error
	if ds.Users, err = loadCollection[entity.User](ctx, s, repository.CollectionUsers); err != nil {
		return ds, nil, err
	}
	if ds.Orders, err = loadCollection[entity.Order](ctx, s, repository.CollectionOrders); err != nil {
		return ds, nil, err
	}
	if ds.Cliches, err = loadCollection[entity.ClicheItem](ctx, s, repository.CollectionCliches); err != nil {
		return ds, nil, err
	}
	if ds.Logs, err = loadCollection[entity.ActivityLog](ctx, s, repository.CollectionLogs); err != nil {
		return ds, nil, err
	}

	if len(ds.Users) == 0 {
		admin := entity.BootstrapAdmin()
		if err := s.local.Put(ctx, repository.CollectionUsers, admin.ID, admin); err != nil {
			s.log.Error().Err(err).Msg("no se pudo persistir el administrador inicial")
		}
		ds.Users = []entity.User{admin}
	}

	sortLogs(ds.Logs)
	var evicted []string
	if len(ds.Logs) > entity.MaxActivityLogs {
		for _, l := range ds.Logs[entity.MaxActivityLogs:] {
			evicted = append(evicted, l.ID)
		}
		ds.Logs = ds.Logs[:entity.MaxActivityLogs]
	}
	return ds, evicted, nil
}

func loadCollection[T any](ctx context.Context, s *Service, c repository.Collection) ([]T, error) {
	raw, err := s.local.GetAll(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%w: leer %s: %v", domain.ErrStoreUnavailable, c, err)
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			s.log.Warn().Err(err).Str("collection", string(c)).Int("index", i).Msg("registro ilegible ignorado")
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Mode devuelve el modo de persistencia de la sesión.
func (s *Service) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// State devuelve el estado del ciclo de vida.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Flush espera a que las escrituras pendientes terminen (o a que ctx expire).
func (s *Service) Flush(ctx context.Context) error {
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return nil
	}
	return q.flush(ctx)
}

// Shutdown drena las escrituras pendientes y detiene el worker. No cierra el almacén local:
// pertenece a quien lo construyó.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	q := s.queue
	s.state = StateClosed
	s.mu.Unlock()
	if q == nil {
		return nil
	}
	return q.close(ctx)
}

// Reinitialize cierra este servicio y devuelve uno nuevo, inicializado contra otro servidor
// espejo (nil o host vacío = modo local), reutilizando el mismo almacén local.
func (s *Service) Reinitialize(ctx context.Context, mirror ports.MirrorClient) (*Service, error) {
	if err := s.Shutdown(ctx); err != nil {
		return nil, fmt.Errorf("cerrar servicio anterior: %w", err)
	}
	next := NewService(s.local, mirror, s.baseLog, s.opts...)
	if err := next.Initialize(ctx); err != nil {
		return nil, err
	}
	return next, nil
}

// Refresh vuelve a descargar el dataset del servidor espejo y reemplaza el caché en silencio.
// En ModeLocal o fuera de StateReady no hace nada y devuelve false.
func (s *Service) Refresh(ctx context.Context) (bool, error) {
	if s.Mode() != ModeRemote || s.State() != StateReady {
		return false, nil
	}
	ds, err := s.mirror.FetchSnapshot(ctx)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return false, nil
	}
	s.replaceCacheLocked(*ds)
	return true, nil
}

// Poll ejecuta Refresh cada interval hasta que ctx se cancele.
func (s *Service) Poll(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: intervalo de sincronización inválido", domain.ErrInvalidInput)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil {
				s.log.Debug().Err(err).Msg("sincronización en segundo plano falló")
			}
		}
	}
}

func (s *Service) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Service) readyLocked() error {
	if s.state != StateReady {
		return domain.ErrNotInitialized
	}
	return nil
}

// replaceCacheLocked reemplaza las cuatro colecciones (copias). Los logs se ordenan antes
// de recortar para conservar los más recientes.
func (s *Service) replaceCacheLocked(ds entity.Dataset) {
	ds = ds.Normalize()
	s.users = append([]entity.User(nil), ds.Users...)
	s.orders = append([]entity.Order(nil), ds.Orders...)
	s.cliches = append([]entity.ClicheItem(nil), ds.Cliches...)
	logs := append([]entity.ActivityLog(nil), ds.Logs...)
	sortLogs(logs)
	if len(logs) > entity.MaxActivityLogs {
		logs = logs[:entity.MaxActivityLogs]
	}
	s.logs = logs
}

// enqueueLocked encola la escritura del modo activo. Debe llamarse con s.mu tomado para
// que el orden de la cola coincida con el orden de aplicación en el caché.
func (s *Service) enqueueLocked(op string, local, remote func(context.Context) error) {
	run := local
	if s.mode == ModeRemote {
		run = remote
	}
	if run == nil || s.queue == nil {
		return
	}
	if !s.queue.enqueue(task{op: op, run: run}) {
		s.log.Warn().Str("op", op).Msg("escritura descartada: servicio cerrado")
	}
}

func (s *Service) localPut(c repository.Collection, id string, v any) func(context.Context) error {
	return func(ctx context.Context) error { return s.local.Put(ctx, c, id, v) }
}

func (s *Service) localDelete(c repository.Collection, id string) func(context.Context) error {
	return func(ctx context.Context) error { return s.local.Delete(ctx, c, id) }
}

// reportFailure registra y notifica una escritura fallida. El caché no se revierte.
func (s *Service) reportFailure(op string, err error) {
	mode := s.Mode()
	s.log.Warn().Err(err).Str("op", op).Str("mode", string(mode)).Msg("persistencia falló; el caché conserva el cambio")
	if s.onFailure != nil {
		s.onFailure(Failure{Op: op, Mode: mode, Err: err, At: s.now()})
	}
}

// sortLogs ordena por timestamp descendente (más reciente primero).
func sortLogs(logs []entity.ActivityLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
}
