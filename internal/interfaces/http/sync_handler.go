package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crs-vision/internal/application/dto"
	appmirror "github.com/jhoicas/crs-vision/internal/application/mirror"
	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// ServerVersion versión informada en /api/status.
const ServerVersion = "2.0.0"

// SyncHandler maneja el protocolo del servidor espejo (público, sin autenticación).
type SyncHandler struct {
	hub *appmirror.Hub
}

// NewSyncHandler construye el handler.
func NewSyncHandler(hub *appmirror.Hub) *SyncHandler {
	return &SyncHandler{hub: hub}
}

// Status godoc
// @Summary      Estado del servidor (prueba de conexión)
// @Tags         sync
// @Produce      json
// @Success      200  {object}  dto.StatusResponse
// @Router       /api/status [get]
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	return c.JSON(dto.StatusResponse{Status: "online", Version: ServerVersion, ServerTime: time.Now().UTC()})
}

// Sync godoc
// @Summary      Dataset completo
// @Tags         sync
// @Produce      json
// @Success      200  {object}  entity.Dataset
// @Router       /api/sync [get]
func (h *SyncHandler) Sync(c *fiber.Ctx) error {
	return c.JSON(h.hub.Snapshot())
}

// ReplaceUsers godoc
// @Summary      Reemplazar la lista completa de usuarios
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        body  body  []entity.User  true  "Lista completa"
// @Success      200   {object}  dto.SuccessResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/users [post]
func (h *SyncHandler) ReplaceUsers(c *fiber.Ctx) error {
	var users []entity.User
	if err := c.BodyParser(&users); err != nil {
		return invalidBody(c)
	}
	return respond(c, h.hub.ReplaceUsers(c.UserContext(), users))
}

// UpsertOrder godoc
// @Summary      Crear o reemplazar una OC
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        body  body  entity.Order  true  "OC"
// @Success      200   {object}  dto.SuccessResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *SyncHandler) UpsertOrder(c *fiber.Ctx) error {
	var o entity.Order
	if err := c.BodyParser(&o); err != nil {
		return invalidBody(c)
	}
	return respond(c, h.hub.UpsertOrder(c.UserContext(), o))
}

// DeleteOrder godoc
// @Summary      Eliminar una OC
// @Tags         sync
// @Produce      json
// @Param        id   path  string  true  "ID de la OC"
// @Success      200  {object}  dto.SuccessResponse
// @Router       /api/orders/{id} [delete]
func (h *SyncHandler) DeleteOrder(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	return respond(c, h.hub.DeleteOrder(c.UserContext(), id))
}

// UpsertCliche godoc
// @Summary      Crear o reemplazar un clichê
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        body  body  entity.ClicheItem  true  "Clichê"
// @Success      200   {object}  dto.SuccessResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/cliches [post]
func (h *SyncHandler) UpsertCliche(c *fiber.Ctx) error {
	var item entity.ClicheItem
	if err := c.BodyParser(&item); err != nil {
		return invalidBody(c)
	}
	return respond(c, h.hub.UpsertCliche(c.UserContext(), item))
}

// PrependLog godoc
// @Summary      Agregar una entrada de actividad
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        body  body  entity.ActivityLog  true  "Entrada"
// @Success      200   {object}  dto.SuccessResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/logs [post]
func (h *SyncHandler) PrependLog(c *fiber.Ctx) error {
	var l entity.ActivityLog
	if err := c.BodyParser(&l); err != nil {
		return invalidBody(c)
	}
	return respond(c, h.hub.PrependLog(c.UserContext(), l))
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func respond(c *fiber.Ctx, err error) error {
	switch {
	case err == nil:
		return c.JSON(dto.SuccessResponse{Success: true})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
