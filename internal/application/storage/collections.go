package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/domain/repository"
)

// ── Lecturas (caché, nunca bloquean por I/O) ──────────────────────────────────
// Todas devuelven copias: el llamador puede conservarlas y comparar referencias.

// Users devuelve los usuarios.
func (s *Service) Users() []entity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.User(nil), s.users...)
}

// Orders devuelve las OCs.
func (s *Service) Orders() []entity.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Order(nil), s.orders...)
}

// Cliches devuelve los clichês.
func (s *Service) Cliches() []entity.ClicheItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.ClicheItem(nil), s.cliches...)
}

// Logs devuelve la bitácora, más reciente primero.
func (s *Service) Logs() []entity.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.ActivityLog(nil), s.logs...)
}

// User busca un usuario por id.
func (s *Service) User(id string) (entity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.users, id, userID); i >= 0 {
		return s.users[i], true
	}
	return entity.User{}, false
}

// Order busca una OC por id.
func (s *Service) Order(id string) (entity.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.orders, id, orderID); i >= 0 {
		return s.orders[i], true
	}
	return entity.Order{}, false
}

// Cliche busca un clichê por id.
func (s *Service) Cliche(id string) (entity.ClicheItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.cliches, id, clicheID); i >= 0 {
		return s.cliches[i], true
	}
	return entity.ClicheItem{}, false
}

// Snapshot copia las cuatro colecciones.
func (s *Service) Snapshot() entity.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entity.Dataset{
		Users:   append([]entity.User{}, s.users...),
		Orders:  append([]entity.Order{}, s.orders...),
		Cliches: append([]entity.ClicheItem{}, s.cliches...),
		Logs:    append([]entity.ActivityLog{}, s.logs...),
	}
}

// Authenticate busca un usuario por nombre (sin distinguir mayúsculas) y contraseña exacta.
// No distingue usuario inexistente de contraseña incorrecta.
func (s *Service) Authenticate(name, password string) (entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := entity.NameKey(name)
	for _, u := range s.users {
		if entity.NameKey(u.Name) == key && u.Password == password {
			return u, nil
		}
	}
	return entity.User{}, domain.ErrInvalidCredentials
}

// ── Usuarios ──────────────────────────────────────────────────────────────────
// En ModeRemote se envía la lista completa; en ModeLocal solo el registro afectado.

// AddUser agrega un usuario. Asigna id si viene vacío.
func (s *Service) AddUser(u entity.User) (entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return entity.User{}, err
	}
	if u.ID == "" {
		u.ID = s.newID()
	}
	if indexOf(s.users, u.ID, userID) >= 0 {
		return entity.User{}, fmt.Errorf("%w: usuario %s", domain.ErrDuplicate, u.ID)
	}
	s.users = append(append([]entity.User(nil), s.users...), u)
	s.enqueueLocked("addUser", s.localPut(repository.CollectionUsers, u.ID, u), s.pushUsersLocked())
	return u, nil
}

// UpdateUser reemplaza un usuario existente.
func (s *Service) UpdateUser(u entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	i := indexOf(s.users, u.ID, userID)
	if i < 0 {
		return domain.ErrUserNotFound
	}
	users := append([]entity.User(nil), s.users...)
	users[i] = u
	s.users = users
	s.enqueueLocked("updateUser", s.localPut(repository.CollectionUsers, u.ID, u), s.pushUsersLocked())
	return nil
}

// DeleteUser elimina un usuario. El administrador inicial se rechaza con ErrProtectedUser
// y permanece en la colección; un id inexistente es no-op.
func (s *Service) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	if id == entity.BootstrapAdminID {
		return domain.ErrProtectedUser
	}
	i := indexOf(s.users, id, userID)
	if i < 0 {
		return nil
	}
	s.users = removeAt(s.users, i)
	s.enqueueLocked("deleteUser", s.localDelete(repository.CollectionUsers, id), s.pushUsersLocked())
	return nil
}

// pushUsersLocked captura la lista actual para enviarla completa al servidor.
func (s *Service) pushUsersLocked() func(context.Context) error {
	if s.mode != ModeRemote {
		return nil
	}
	users := append([]entity.User{}, s.users...)
	return func(ctx context.Context) error { return s.mirror.PushUsers(ctx, users) }
}

// ── OCs ───────────────────────────────────────────────────────────────────────

// SaveOrder hace upsert por id. Una OC nueva recibe id y CreatedAt si faltan; una existente
// conserva su CreatedAt original.
func (s *Service) SaveOrder(o entity.Order) (entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return entity.Order{}, err
	}
	if o.ID == "" {
		o.ID = s.newID()
	}
	orders := append([]entity.Order(nil), s.orders...)
	if i := indexOf(orders, o.ID, orderID); i >= 0 {
		o.CreatedAt = orders[i].CreatedAt
		orders[i] = o
	} else {
		if o.CreatedAt.IsZero() {
			o.CreatedAt = s.now().UTC()
		}
		orders = append(orders, o)
	}
	s.orders = orders

	saved := o
	s.enqueueLocked("saveOrder",
		s.localPut(repository.CollectionOrders, saved.ID, saved),
		func(ctx context.Context) error { return s.mirror.PushOrder(ctx, saved) },
	)
	return saved, nil
}

// DeleteOrder elimina una OC por id; no-op si no existe.
func (s *Service) DeleteOrder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	i := indexOf(s.orders, id, orderID)
	if i < 0 {
		return nil
	}
	s.orders = removeAt(s.orders, i)
	s.enqueueLocked("deleteOrder",
		s.localDelete(repository.CollectionOrders, id),
		func(ctx context.Context) error { return s.mirror.DeleteOrder(ctx, id) },
	)
	return nil
}

// ── Clichês ───────────────────────────────────────────────────────────────────

// SaveCliche hace upsert por id. No valida la transición sent -> received: eso lo hace
// el control de clichês antes de llamar.
func (s *Service) SaveCliche(c entity.ClicheItem) (entity.ClicheItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return entity.ClicheItem{}, err
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	cliches := append([]entity.ClicheItem(nil), s.cliches...)
	if i := indexOf(cliches, c.ID, clicheID); i >= 0 {
		cliches[i] = c
	} else {
		if c.SentDate.IsZero() {
			c.SentDate = s.now().UTC()
		}
		cliches = append(cliches, c)
	}
	s.cliches = cliches

	saved := c
	s.enqueueLocked("saveCliche",
		s.localPut(repository.CollectionCliches, saved.ID, saved),
		func(ctx context.Context) error { return s.mirror.PushCliche(ctx, saved) },
	)
	return saved, nil
}

// ── Bitácora ──────────────────────────────────────────────────────────────────

// AddLog crea una entrada con id y timestamp nuevos, la antepone y recorta a MaxActivityLogs.
// Una categoría desconocida se registra como info.
func (s *Service) AddLog(action, details, userName, category string) (entity.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return entity.ActivityLog{}, err
	}
	if !entity.ValidLogType(category) {
		category = entity.LogInfo
	}
	entry := entity.ActivityLog{
		ID:        s.newID(),
		Action:    action,
		Details:   details,
		UserName:  userName,
		Timestamp: s.now().UTC(),
		Type:      category,
	}

	logs := make([]entity.ActivityLog, 0, len(s.logs)+1)
	logs = append(logs, entry)
	logs = append(logs, s.logs...)
	var evicted []entity.ActivityLog
	if len(logs) > entity.MaxActivityLogs {
		evicted = logs[entity.MaxActivityLogs:]
		logs = logs[:entity.MaxActivityLogs]
	}
	s.logs = logs

	s.enqueueLocked("addLog",
		s.localPut(repository.CollectionLogs, entry.ID, entry),
		func(ctx context.Context) error { return s.mirror.PushLog(ctx, entry) },
	)
	// El servidor recorta por su cuenta; localmente se poda lo desalojado del caché.
	for _, old := range evicted {
		s.enqueueLocked("pruneLog", s.localDelete(repository.CollectionLogs, old.ID), nil)
	}
	return entry, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func userID(u entity.User) string         { return u.ID }
func orderID(o entity.Order) string       { return o.ID }
func clicheID(c entity.ClicheItem) string { return c.ID }

func indexOf[T any](items []T, id string, key func(T) string) int {
	for i := range items {
		if key(items[i]) == id {
			return i
		}
	}
	return -1
}

// removeAt devuelve un slice nuevo sin el elemento i.
func removeAt[T any](items []T, i int) []T {
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
