// Package jsonfile persiste el dataset del servidor espejo en un único archivo JSON
// (network_db.json), reescrito completo e indentado en cada mutación.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/domain/repository"
)

// Verificar en tiempo de compilación que DatasetFile implementa DatasetRepository.
var _ repository.DatasetRepository = (*DatasetFile)(nil)

// DatasetFile adaptador de DatasetRepository sobre un archivo.
type DatasetFile struct {
	path string
}

// NewDatasetFile construye el adaptador.
func NewDatasetFile(path string) *DatasetFile {
	return &DatasetFile{path: path}
}

// Path ruta del archivo.
func (f *DatasetFile) Path() string { return f.path }

// Load lee el archivo. Inexistente = domain.ErrNotFound; ilegible = domain.ErrInvalidInput.
func (f *DatasetFile) Load(_ context.Context) (*entity.Dataset, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: leer %s: %w", f.path, err)
	}
	var d entity.Dataset
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, f.path, err)
	}
	d = d.Normalize()
	return &d, nil
}

// Save reescribe el archivo completo (escritura a temporal + rename).
func (f *DatasetFile) Save(_ context.Context, d entity.Dataset) error {
	raw, err := json.MarshalIndent(d.Normalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: serializar: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".network_db-*.json")
	if err != nil {
		return fmt.Errorf("jsonfile: crear temporal: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonfile: escribir: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonfile: cerrar: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonfile: reemplazar %s: %w", f.path, err)
	}
	return nil
}
