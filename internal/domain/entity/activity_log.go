package entity

import "time"

// MaxActivityLogs cantidad máxima de registros de actividad retenidos (los más recientes).
const MaxActivityLogs = 1000

// Categorías de actividad.
const (
	LogCreate = "create"
	LogUpdate = "update"
	LogDelete = "delete"
	LogInfo   = "info"
)

// ActivityLog entrada de la bitácora de actividad. Solo se agregan; orden: más reciente primero.
type ActivityLog struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"` // create, update, delete, info
}

// ValidLogType indica si la categoría es conocida.
func ValidLogType(t string) bool {
	switch t {
	case LogCreate, LogUpdate, LogDelete, LogInfo:
		return true
	}
	return false
}
