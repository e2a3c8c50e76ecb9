package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrInvalidCredentials = errors.New("acceso denegado: usuario o contraseña incorrectos")
	ErrProtectedUser      = errors.New("el administrador inicial no puede eliminarse")
	ErrNotInitialized     = errors.New("almacenamiento no inicializado")
	ErrStoreUnavailable   = errors.New("no fue posible abrir el almacén local")
	ErrMirrorDisabled     = errors.New("servidor espejo no configurado")
	ErrMirrorUnreachable  = errors.New("servidor espejo inaccesible")
	ErrInvalidBackup      = errors.New("archivo de respaldo inválido")
	ErrRestoreIncomplete  = errors.New("restauración incompleta: datos locales y remotos pueden diferir")
	ErrInvalidTransition  = errors.New("transición de estado inválida")
)
