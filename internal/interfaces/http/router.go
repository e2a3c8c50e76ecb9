package http

import (
	"os"
	"path/filepath"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"

	"github.com/jhoicas/crs-vision/docs"

	appmirror "github.com/jhoicas/crs-vision/internal/application/mirror"
	"github.com/jhoicas/crs-vision/internal/application/ports"
)

// BodyLimit tamaño máximo de una petición (la lista de usuarios viaja completa).
const BodyLimit = 50 * 1024 * 1024

// PlaceholderText respuesta del comodín cuando no hay build del frontend.
const PlaceholderText = "Servidor API en ejecución. Para ver la aplicación, compile el frontend."

// RouterDeps dependencias para registrar las rutas.
type RouterDeps struct {
	Hub     *appmirror.Hub
	Sheet   ports.SheetRenderer // nil = sin reporte PDF
	DistDir string              // vacío o inexistente = sin estáticos
	Log     zerolog.Logger
}

// NewApp crea la aplicación Fiber del servidor espejo con middleware y rutas.
func NewApp(appName string, deps RouterDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		BodyLimit:             BodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	app.Use(RequestLogger(deps.Log))

	// Swagger UI: http://<host>:<port>/docs, servido desde el registro de swag (sin archivo en disco).
	if spec, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName()); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath:    "/",
			FilePath:    "./docs/swagger.json",
			FileContent: []byte(spec),
			Path:        "docs",
			Title:       docs.SwaggerInfo.Title,
		}))
	} else {
		deps.Log.Warn().Err(err).Msg("documentación de la API no disponible")
	}

	Router(app, deps)
	return app
}

// Router registra las rutas del protocolo de sincronización, el reporte y el frontend.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	syncH := NewSyncHandler(deps.Hub)
	api := app.Group("/api")
	api.Get("/status", syncH.Status)
	api.Get("/sync", syncH.Sync)
	api.Post("/users", syncH.ReplaceUsers)
	api.Post("/orders", syncH.UpsertOrder)
	api.Delete("/orders/:id", syncH.DeleteOrder)
	api.Post("/cliches", syncH.UpsertCliche)
	api.Post("/logs", syncH.PrependLog)

	if deps.Sheet != nil {
		reportH := NewReportHandler(deps.Hub, deps.Sheet)
		api.Get("/reports/production.pdf", reportH.ProductionSheet)
	}

	index := ""
	if deps.DistDir != "" {
		if st, err := os.Stat(deps.DistDir); err == nil && st.IsDir() {
			app.Static("/", deps.DistDir)
			index = filepath.Join(deps.DistDir, "index.html")
		}
	}
	app.Get("*", func(c *fiber.Ctx) error {
		if index != "" {
			if _, err := os.Stat(index); err == nil {
				return c.SendFile(index)
			}
		}
		return c.SendString(PlaceholderText)
	})
}
