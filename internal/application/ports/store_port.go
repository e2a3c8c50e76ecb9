package ports

import "github.com/jhoicas/crs-vision/internal/domain/entity"

// DataStore define la fachada de datos que consumen los casos de uso de producción.
// Lecturas desde caché; las mutaciones se persisten en segundo plano.
type DataStore interface {
	Users() []entity.User
	User(id string) (entity.User, bool)
	AddUser(u entity.User) (entity.User, error)
	UpdateUser(u entity.User) error
	DeleteUser(id string) error

	Orders() []entity.Order
	Order(id string) (entity.Order, bool)
	SaveOrder(o entity.Order) (entity.Order, error)
	DeleteOrder(id string) error

	Cliches() []entity.ClicheItem
	Cliche(id string) (entity.ClicheItem, bool)
	SaveCliche(c entity.ClicheItem) (entity.ClicheItem, error)

	AddLog(action, details, userName, category string) (entity.ActivityLog, error)
}
