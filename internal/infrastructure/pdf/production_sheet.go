// Package pdf genera la hoja de producción imprimible del tablero de OCs.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: CRS Vision + título   │  Fecha + emitido por       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Total | Urgentes | En producción                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: OC | Cliente | Descripción | Prioridad | Estado | Entrega │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: versión                                            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/crs-vision/internal/application/ports"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// Verificar en tiempo de compilación que SheetGenerator implementa SheetRenderer.
var _ ports.SheetRenderer = (*SheetGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorBlack  = &props.Color{Red: 0, Green: 0, Blue: 0}
	colorGray   = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorLight  = &props.Color{Red: 245, Green: 245, Blue: 245}
	colorWhite  = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorRed    = &props.Color{Red: 185, Green: 28, Blue: 28}
	colorOrange = &props.Color{Red: 194, Green: 65, Blue: 12}
	colorBlue   = &props.Color{Red: 37, Green: 99, Blue: 235}
)

// Etiquetas impresas de prioridad y estado.
var (
	priorityLabels = map[string]string{
		entity.PriorityNormal: "Normal",
		entity.PriorityMedium: "Medio",
		entity.PriorityUrgent: "Urgente",
	}
	statusLabels = map[string]string{
		entity.StatusPending:    "Pendiente",
		entity.StatusInProgress: "En producción",
		entity.StatusCompleted:  "Concluida",
		entity.StatusStopped:    "Detenida",
	}
)

// Version pie de página de la hoja.
const Version = "CRS Vision Manager • v2.0"

// ── Generator ─────────────────────────────────────────────────────────────────

// SheetGenerator implementa ports.SheetRenderer usando Maroto v2.
type SheetGenerator struct {
	loc *time.Location
}

// NewSheetGenerator construye el generador. loc es la zona para las fechas impresas (nil = UTC).
func NewSheetGenerator(loc *time.Location) *SheetGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &SheetGenerator{loc: loc}
}

// RenderProductionSheet genera el PDF con las OCs en el orden recibido y devuelve sus bytes.
func (g *SheetGenerator) RenderProductionSheet(ctx context.Context, issuedBy string, orders []entity.Order, printedAt time.Time) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Informe de Producción", true).
		WithAuthor("CRS Vision", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(issuedBy, printedAt.In(g.loc)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorBlack, Thickness: 0.6}))
	m.AddRows(summaryRow(orders))
	m.AddRows(line.NewRow(2))

	m.AddRows(tableHeaderRow())
	m.AddRows(g.tableRows(orders)...)
	if len(orders) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("No hay órdenes de producción.", props.Text{Size: 9, Align: align.Center, Color: colorGray, Top: 3}),
		)))
	}

	m.AddRows(line.NewRow(4))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(row.New(6).Add(col.New(12).Add(
		text.New(Version, props.Text{Size: 7, Color: colorGray, Top: 1}),
	)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar hoja de producción: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(issuedBy string, printedAt time.Time) core.Row {
	return row.New(20).Add(
		col.New(8).Add(
			text.New("CRS VISION", props.Text{
				Style: fontstyle.Bold, Size: 20, Color: colorBlack, Top: 1,
			}),
			text.New("INFORME DE PRODUCCIÓN", props.Text{
				Size: 8, Top: 12, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New(printedAt.Format("02/01/2006"), props.Text{
				Style: fontstyle.Bold, Size: 14, Align: align.Right, Top: 2,
			}),
			text.New("Emitido por: "+nonEmpty(issuedBy, "—"), props.Text{
				Size: 7, Align: align.Right, Top: 12, Color: colorGray,
			}),
		),
	)
}

// summaryRow: totales rápidos de la lista impresa.
func summaryRow(orders []entity.Order) core.Row {
	var urgent, inProgress int
	for _, o := range orders {
		if o.Priority == entity.PriorityUrgent {
			urgent++
		}
		if o.Status == entity.StatusInProgress {
			inProgress++
		}
	}
	stat := func(value int, label string, c *props.Color) core.Col {
		return col.New(3).Add(
			text.New(fmt.Sprint(value), props.Text{Style: fontstyle.Bold, Size: 13, Color: c, Top: 1}),
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 8}),
		)
	}
	return row.New(14).Add(
		stat(len(orders), "TOTAL DE ÍTEMS", colorBlack),
		stat(urgent, "URGENTES", colorRed),
		stat(inProgress, "EN PRODUCCIÓN", colorBlue),
		col.New(3),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(7).Add(
		h("OC", 1, align.Left),
		h("CLIENTE", 3, align.Left),
		h("DESCRIPCIÓN", 4, align.Left),
		h("PRIORIDAD", 1, align.Center),
		h("ESTADO", 2, align.Center),
		h("ENTREGA", 1, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorBlack})
}

// tableRows: una fila por OC, con fondo alterno.
func (g *SheetGenerator) tableRows(orders []entity.Order) []core.Row {
	result := make([]core.Row, 0, len(orders))
	for i, o := range orders {
		r := row.New(8).Add(
			col.New(1).Add(text.New("#"+o.OCNumber, props.Text{
				Style: fontstyle.Bold, Size: 8, Top: 2, Left: 1,
			})),
			col.New(3).Add(text.New(o.Client, props.Text{
				Style: fontstyle.Bold, Size: 8, Top: 2, Left: 1,
			})),
			col.New(4).Add(text.New(o.Description, props.Text{
				Size: 7, Top: 2, Left: 1, Color: colorGray,
			})),
			col.New(1).Add(text.New(label(priorityLabels, o.Priority), props.Text{
				Style: fontstyle.Bold, Size: 7, Align: align.Center, Top: 2, Color: priorityColor(o.Priority),
			})),
			col.New(2).Add(text.New(label(statusLabels, o.Status), props.Text{
				Size: 7, Align: align.Center, Top: 2,
			})),
			col.New(1).Add(text.New(g.formatDue(o), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 2, Right: 1,
			})),
		)
		if i%2 == 1 {
			r = r.WithStyle(&props.Cell{BackgroundColor: colorLight})
		}
		result = append(result, r)
	}
	return result
}

// ── helpers ───────────────────────────────────────────────────────────────────

// formatDue imprime la fecha de entrega como día calendario (dd/mm/aaaa) sin convertir zona.
func (g *SheetGenerator) formatDue(o entity.Order) string {
	d, err := o.DueDay()
	if err != nil {
		return o.DueDate
	}
	return d.Format("02/01/2006")
}

func priorityColor(p string) *props.Color {
	switch p {
	case entity.PriorityUrgent:
		return colorRed
	case entity.PriorityMedium:
		return colorOrange
	}
	return colorGray
}

func label(labels map[string]string, key string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return key
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
