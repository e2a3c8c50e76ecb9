package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crs-vision/internal/application/dto"
	appmirror "github.com/jhoicas/crs-vision/internal/application/mirror"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/infrastructure/jsonfile"
	apphttp "github.com/jhoicas/crs-vision/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fakeSheet struct {
	title  string
	orders []entity.Order
}

func (f *fakeSheet) RenderProductionSheet(_ context.Context, title string, orders []entity.Order, _ time.Time) ([]byte, error) {
	f.title = title
	f.orders = orders
	return []byte("%PDF-fake"), nil
}

type testServer struct {
	app   *fiber.App
	hub   *appmirror.Hub
	file  *jsonfile.DatasetFile
	sheet *fakeSheet
}

func newTestServer(t *testing.T, distDir string) *testServer {
	t.Helper()
	file := jsonfile.NewDatasetFile(filepath.Join(t.TempDir(), "network_db.json"))
	hub := appmirror.NewHub(file, zerolog.Nop())
	require.NoError(t, hub.Load(context.Background()))
	sheet := &fakeSheet{}
	app := apphttp.NewApp("crs-vision-test", apphttp.RouterDeps{
		Hub:     hub,
		Sheet:   sheet,
		DistDir: distDir,
		Log:     zerolog.Nop(),
	})
	return &testServer{app: app, hub: hub, file: file, sheet: sheet}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func assertSuccess(t *testing.T, resp *http.Response, body string) {
	t.Helper()
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	var ok dto.SuccessResponse
	require.NoError(t, json.Unmarshal([]byte(body), &ok))
	assert.True(t, ok.Success)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestStatus(t *testing.T) {
	s := newTestServer(t, "")
	resp, body := s.do(t, fiber.MethodGet, "/api/status", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var st dto.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	assert.Equal(t, "online", st.Status)
	assert.Equal(t, apphttp.ServerVersion, st.Version)
	assert.False(t, st.ServerTime.IsZero())
}

func TestSync_DatosIniciales(t *testing.T) {
	s := newTestServer(t, "")
	resp, body := s.do(t, fiber.MethodGet, "/api/sync", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var d entity.Dataset
	require.NoError(t, json.Unmarshal([]byte(body), &d))
	require.Len(t, d.Users, 1)
	assert.Equal(t, entity.BootstrapAdminID, d.Users[0].ID)
	assert.Contains(t, body, `"orders":[]`)
}

func TestOrders_UpsertYDelete(t *testing.T) {
	s := newTestServer(t, "")

	resp, body := s.do(t, fiber.MethodPost, "/api/orders", `{"id":"o1","ocNumber":"10","client":"Acme"}`)
	assertSuccess(t, resp, body)
	resp, body = s.do(t, fiber.MethodPost, "/api/orders", `{"id":"o1","ocNumber":"10","client":"Acme SA"}`)
	assertSuccess(t, resp, body)

	orders := s.hub.Snapshot().Orders
	require.Len(t, orders, 1)
	assert.Equal(t, "Acme SA", orders[0].Client)

	onDisk, err := s.file.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, onDisk.Orders, 1)

	resp, body = s.do(t, fiber.MethodDelete, "/api/orders/o1", "")
	assertSuccess(t, resp, body)
	assert.Empty(t, s.hub.Snapshot().Orders)
}

func TestOrders_Errores(t *testing.T) {
	s := newTestServer(t, "")

	resp, body := s.do(t, fiber.MethodPost, "/api/orders", `nada`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "INVALID_BODY")

	resp, body = s.do(t, fiber.MethodPost, "/api/orders", `{"client":"sin id"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "VALIDATION")
}

func TestUsers_ReemplazaLista(t *testing.T) {
	s := newTestServer(t, "")
	resp, body := s.do(t, fiber.MethodPost, "/api/users",
		`[{"id":"u1","name":"Ana","role":"operator"},{"id":"u2","name":"Bia","role":"salesperson"}]`)
	assertSuccess(t, resp, body)

	users := s.hub.Snapshot().Users
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "u2", users[1].ID)
}

func TestClichesYLogs(t *testing.T) {
	s := newTestServer(t, "")

	resp, body := s.do(t, fiber.MethodPost, "/api/cliches", `{"id":"c1","client":"Acme","status":"sent"}`)
	assertSuccess(t, resp, body)
	resp, body = s.do(t, fiber.MethodPost, "/api/logs", `{"id":"l1","action":"a","type":"info"}`)
	assertSuccess(t, resp, body)
	resp, body = s.do(t, fiber.MethodPost, "/api/logs", `{"id":"l2","action":"b","type":"info"}`)
	assertSuccess(t, resp, body)

	snap := s.hub.Snapshot()
	require.Len(t, snap.Cliches, 1)
	require.Len(t, snap.Logs, 2)
	assert.Equal(t, "l2", snap.Logs[0].ID, "la entrada nueva va primero")
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(fiber.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "http://192.168.0.20:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestReporteProduccion(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()
	require.NoError(t, s.hub.UpsertOrder(ctx, entity.Order{ID: "o1", Client: "Acme", Priority: entity.PriorityNormal, DueDate: "2024-03-01"}))
	require.NoError(t, s.hub.UpsertOrder(ctx, entity.Order{ID: "o2", Client: "Beta", Priority: entity.PriorityUrgent, DueDate: "2024-03-09"}))
	require.NoError(t, s.hub.UpsertOrder(ctx, entity.Order{ID: "o3", Client: "Acme", Priority: entity.PriorityUrgent, DueDate: "2024-03-05"}))

	resp, body := s.do(t, fiber.MethodGet, "/api/reports/production.pdf", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "%PDF-fake", body)
	require.Len(t, s.sheet.orders, 3)
	assert.Equal(t, []string{"o3", "o2", "o1"}, []string{s.sheet.orders[0].ID, s.sheet.orders[1].ID, s.sheet.orders[2].ID})

	resp, _ = s.do(t, fiber.MethodGet, "/api/reports/production.pdf?q=acme", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, s.sheet.orders, 2)
}

func TestComodin_SinFrontend(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "no-existe"))
	resp, body := s.do(t, fiber.MethodGet, "/tablero", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, apphttp.PlaceholderText, body)
}

func TestComodin_ConFrontend(t *testing.T) {
	dist := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dist, "index.html"), []byte("<html>crs</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "app.js"), []byte("console.log(1)"), 0o644))

	s := newTestServer(t, dist)
	_, body := s.do(t, fiber.MethodGet, "/app.js", "")
	assert.Equal(t, "console.log(1)", body)

	_, body = s.do(t, fiber.MethodGet, "/tablero/semana", "")
	assert.Equal(t, "<html>crs</html>", body)
}

func TestDocs(t *testing.T) {
	file := jsonfile.NewDatasetFile(filepath.Join(t.TempDir(), "network_db.json"))
	hub := appmirror.NewHub(file, zerolog.Nop())
	require.NoError(t, hub.Load(context.Background()))
	app := apphttp.NewApp("crs-vision-test", apphttp.RouterDeps{Hub: hub, Log: zerolog.Nop()})
	_, err := os.Stat("docs/swagger.json")
	require.True(t, os.IsNotExist(err), "la documentación no depende de un archivo en disco")

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/docs", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "swagger-ui")

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/status", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
