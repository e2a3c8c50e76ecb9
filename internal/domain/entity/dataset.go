package entity

import "time"

// BackupVersion versión del formato de respaldo.
const BackupVersion = "2.0-Network"

// Dataset las cuatro colecciones completas, tal como viajan en GET /api/sync.
type Dataset struct {
	Users   []User        `json:"users"`
	Orders  []Order       `json:"orders"`
	Cliches []ClicheItem  `json:"cliches"`
	Logs    []ActivityLog `json:"logs"`
}

// Backup archivo de respaldo: el dataset más marca de tiempo y versión de formato.
type Backup struct {
	Orders    []Order       `json:"orders"`
	Users     []User        `json:"users"`
	Cliches   []ClicheItem  `json:"cliches"`
	Logs      []ActivityLog `json:"logs"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
}

// Dataset extrae las colecciones del respaldo.
func (b Backup) Dataset() Dataset {
	return Dataset{Users: b.Users, Orders: b.Orders, Cliches: b.Cliches, Logs: b.Logs}
}

// NewBackup arma un respaldo del dataset en el instante indicado.
func NewBackup(d Dataset, at time.Time) Backup {
	return Backup{
		Orders:    nonNil(d.Orders),
		Users:     nonNil(d.Users),
		Cliches:   nonNil(d.Cliches),
		Logs:      nonNil(d.Logs),
		Timestamp: at.UTC(),
		Version:   BackupVersion,
	}
}

// nonNil evita que una colección vacía se serialice como null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Normalize reemplaza colecciones nulas por vacías.
func (d Dataset) Normalize() Dataset {
	return Dataset{
		Users:   nonNil(d.Users),
		Orders:  nonNil(d.Orders),
		Cliches: nonNil(d.Cliches),
		Logs:    nonNil(d.Logs),
	}
}
