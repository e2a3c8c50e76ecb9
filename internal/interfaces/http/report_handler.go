package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/crs-vision/internal/application/dto"
	appmirror "github.com/jhoicas/crs-vision/internal/application/mirror"
	"github.com/jhoicas/crs-vision/internal/application/ports"
	"github.com/jhoicas/crs-vision/internal/application/production"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// ReportHandler genera la hoja de producción a partir del dataset compartido.
type ReportHandler struct {
	hub   *appmirror.Hub
	sheet ports.SheetRenderer
	now   func() time.Time
}

// NewReportHandler construye el handler.
func NewReportHandler(hub *appmirror.Hub, sheet ports.SheetRenderer) *ReportHandler {
	return &ReportHandler{hub: hub, sheet: sheet, now: time.Now}
}

// ProductionSheet godoc
// @Summary      Hoja de producción en PDF
// @Description  Todas las OCs en el orden del tablero; q filtra por cliente, número de OC o descripción.
// @Tags         reports
// @Produce      application/pdf
// @Param        q    query  string  false  "Búsqueda"
// @Success      200  {file}    binary
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/reports/production.pdf [get]
func (h *ReportHandler) ProductionSheet(c *fiber.Ctx) error {
	viewer := entity.User{Name: "Servidor", Role: entity.RoleAdmin}
	orders := production.VisibleOrders(viewer, h.hub.Snapshot().Orders, c.Query("q"))

	pdf, err := h.sheet.RenderProductionSheet(c.UserContext(), viewer.Name, orders, h.now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PDF_ERROR", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="producao.pdf"`)
	return c.Send(pdf)
}
