// Package settings guarda las preferencias del dispositivo (tema, servidor espejo y
// sesión recordada) en un archivo JSON pequeño, fuera del almacén de registros.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Temas soportados.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const (
	keyTheme       = "theme"
	keyServerIP    = "server_ip"
	keySavedUserID = "saved_user_id"
)

// Store preferencias persistidas clave/valor.
type Store struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// Open carga el archivo de preferencias; si no existe se parte de los valores por defecto.
func Open(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault(keyTheme, ThemeDark)
	v.SetDefault(keyServerIP, "")
	v.SetDefault(keySavedUserID, "")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("leer preferencias %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat preferencias %s: %w", path, err)
	}
	return &Store{v: v, path: path}, nil
}

// Theme devuelve el tema guardado (dark por defecto).
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.v.GetString(keyTheme); t == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

// SetTheme persiste el tema. Solo acepta light o dark.
func (s *Store) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("tema inválido: %q", theme)
	}
	return s.set(keyTheme, theme)
}

// ServerHost devuelve el host del servidor espejo configurado ("" = modo local).
func (s *Store) ServerHost() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString(keyServerIP)
}

// SetServerHost guarda el host; vacío lo elimina. El cambio aplica en la próxima
// inicialización del servicio de almacenamiento.
func (s *Store) SetServerHost(host string) error {
	return s.set(keyServerIP, host)
}

// SavedSession devuelve el id del usuario recordado, si existe.
func (s *Store) SavedSession() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.v.GetString(keySavedUserID)
	return id, id != ""
}

// SaveSession recuerda el usuario autenticado.
func (s *Store) SaveSession(userID string) error {
	return s.set(keySavedUserID, userID)
}

// ClearSession olvida el usuario recordado.
func (s *Store) ClearSession() error {
	return s.set(keySavedUserID, "")
}

func (s *Store) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, value)
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("crear directorio de preferencias: %w", err)
		}
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("guardar preferencias: %w", err)
	}
	return nil
}
