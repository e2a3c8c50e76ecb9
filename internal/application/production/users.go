package production

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/crs-vision/internal/application/ports"
	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// AvatarGradients tokens de avatar predefinidos; el primero es el valor por defecto.
var AvatarGradients = []string{
	"from-blue-500 to-cyan-500",
	"from-purple-500 to-pink-500",
	"from-orange-500 to-red-500",
	"from-green-500 to-emerald-500",
	"from-gray-700 to-black",
}

// UserAdmin gestión de usuarios, exclusiva del rol admin.
type UserAdmin struct {
	store ports.DataStore
}

// NewUserAdmin construye la gestión de usuarios.
func NewUserAdmin(store ports.DataStore) *UserAdmin {
	return &UserAdmin{store: store}
}

// Create agrega un usuario. Nombre y contraseña son obligatorios; el nombre no puede
// repetirse (la autenticación busca por nombre).
func (a *UserAdmin) Create(actor, u entity.User) (entity.User, error) {
	if err := authorize(actor, CapUsers); err != nil {
		return entity.User{}, err
	}
	u.Name = strings.TrimSpace(u.Name)
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Avatar == "" {
		u.Avatar, u.IsCustomImage = AvatarGradients[0], false
	}
	if err := u.Validate(); err != nil {
		return entity.User{}, err
	}
	if strings.TrimSpace(u.Password) == "" {
		return entity.User{}, fmt.Errorf("%w: contraseña requerida", domain.ErrInvalidInput)
	}
	if a.nameTaken(u.Name, u.ID) {
		return entity.User{}, fmt.Errorf("%w: ya existe un usuario %q", domain.ErrDuplicate, u.Name)
	}
	saved, err := a.store.AddUser(u)
	if err != nil {
		return entity.User{}, err
	}
	_, err = a.store.AddLog("Usuario creado", "Creó nuevo usuario: "+saved.Name, actor.Name, entity.LogCreate)
	return saved, err
}

// Update modifica un usuario existente. Una contraseña vacía conserva la anterior.
func (a *UserAdmin) Update(actor, u entity.User) (entity.User, error) {
	if err := authorize(actor, CapUsers); err != nil {
		return entity.User{}, err
	}
	current, ok := a.store.User(u.ID)
	if !ok {
		return entity.User{}, domain.ErrUserNotFound
	}
	u.Name = strings.TrimSpace(u.Name)
	if strings.TrimSpace(u.Password) == "" {
		u.Password = current.Password
	}
	if u.Avatar == "" {
		u.Avatar, u.IsCustomImage = current.Avatar, current.IsCustomImage
	}
	if err := u.Validate(); err != nil {
		return entity.User{}, err
	}
	if u.IsBootstrap() && u.Role != entity.RoleAdmin {
		return entity.User{}, fmt.Errorf("%w: el administrador inicial conserva su rol", domain.ErrProtectedUser)
	}
	if a.nameTaken(u.Name, u.ID) {
		return entity.User{}, fmt.Errorf("%w: ya existe un usuario %q", domain.ErrDuplicate, u.Name)
	}
	if err := a.store.UpdateUser(u); err != nil {
		return entity.User{}, err
	}
	_, err := a.store.AddLog("Usuario editado", "Modificó el perfil de "+u.Name, actor.Name, entity.LogUpdate)
	return u, err
}

// Delete elimina un usuario. El administrador inicial devuelve ErrProtectedUser.
func (a *UserAdmin) Delete(actor entity.User, id string) error {
	if err := authorize(actor, CapUsers); err != nil {
		return err
	}
	u, ok := a.store.User(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	if err := a.store.DeleteUser(id); err != nil {
		return err
	}
	_, err := a.store.AddLog("Usuario eliminado", "Eliminó al usuario "+u.Name, actor.Name, entity.LogDelete)
	return err
}

func (a *UserAdmin) nameTaken(name, exceptID string) bool {
	for _, other := range a.store.Users() {
		if other.ID != exceptID && entity.SameName(other.Name, name) {
			return true
		}
	}
	return false
}

// VendorCandidates usuarios que pueden figurar como vendedor de una OC (vendedores y admins).
func VendorCandidates(users []entity.User) []entity.User {
	var out []entity.User
	for _, u := range users {
		if u.Role == entity.RoleSalesperson || u.Role == entity.RoleAdmin {
			out = append(out, u)
		}
	}
	return out
}

// ExportUsersCSV escribe la lista de usuarios (ID, Nombre, Función, Contraseña) en CSV.
func ExportUsersCSV(w io.Writer, users []entity.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Nombre", "Función", "Contraseña"}); err != nil {
		return err
	}
	for _, u := range users {
		if err := cw.Write([]string{u.ID, u.Name, u.Role, u.Password}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
