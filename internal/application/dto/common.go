package dto

import "time"

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse respuesta de las mutaciones del servidor espejo.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// StatusResponse respuesta de GET /api/status (prueba de conexión).
type StatusResponse struct {
	Status     string    `json:"status"`
	Version    string    `json:"version"`
	ServerTime time.Time `json:"serverTime"`
}
