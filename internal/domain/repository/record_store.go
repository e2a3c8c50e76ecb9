package repository

import (
	"context"
	"encoding/json"
)

// Collection nombre de una de las cuatro colecciones independientes.
type Collection string

// Colecciones del almacén.
const (
	CollectionUsers   Collection = "users"
	CollectionOrders  Collection = "orders"
	CollectionCliches Collection = "cliches"
	CollectionLogs    Collection = "logs"
)

// Collections todas las colecciones, en el orden en que se crean.
var Collections = []Collection{CollectionUsers, CollectionOrders, CollectionCliches, CollectionLogs}

// Valid indica si la colección es una de las conocidas.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// Record par id/valor para escrituras masivas. Value se serializa como JSON.
type Record struct {
	ID    string
	Value any
}

// RecordStore define el puerto del almacén local clave/valor por dispositivo (DIP).
// No valida contenido: la validación es responsabilidad del llamador.
type RecordStore interface {
	// Initialize abre el almacén y crea las colecciones que falten.
	Initialize(ctx context.Context) error
	// GetAll devuelve todos los registros de la colección, sin orden definido.
	GetAll(ctx context.Context, c Collection) ([]json.RawMessage, error)
	// Put inserta o reemplaza por id.
	Put(ctx context.Context, c Collection, id string, value any) error
	// Delete elimina por id; no-op si no existe.
	Delete(ctx context.Context, c Collection, id string) error
	// Replace vacía las colecciones indicadas e inserta los registros dados en una sola transacción.
	Replace(ctx context.Context, data map[Collection][]Record) error
	Close() error
}
