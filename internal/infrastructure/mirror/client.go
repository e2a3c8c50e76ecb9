// Package mirror implementa el cliente HTTP del servidor espejo de la red local
// (http://<host>:3001/api). Usa net/http de la librería estándar.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jhoicas/crs-vision/internal/application/dto"
	"github.com/jhoicas/crs-vision/internal/application/ports"
	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// Verificar en tiempo de compilación que Client implementa MirrorClient.
var _ ports.MirrorClient = (*Client)(nil)

const (
	// DefaultPort puerto del servidor espejo.
	DefaultPort = 3001
	// DefaultTestTimeout límite duro de la prueba de conexión.
	DefaultTestTimeout = 2 * time.Second
)

// Client adaptador de MirrorClient. Con host vacío queda deshabilitado.
type Client struct {
	host       string
	port       int
	httpClient *http.Client
}

// NewClient construye el cliente. timeout 0 = sin límite por petición.
func NewClient(host string, port int, timeout time.Duration) *Client {
	if port <= 0 {
		port = DefaultPort
	}
	return &Client{
		host:       host,
		port:       port,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled indica si hay un host configurado.
func (c *Client) Enabled() bool { return c.host != "" }

// Host devuelve el host configurado.
func (c *Client) Host() string { return c.host }

// Status consulta GET /api/status.
func (c *Client) Status(ctx context.Context) (*dto.StatusResponse, error) {
	if !c.Enabled() {
		return nil, domain.ErrMirrorDisabled
	}
	var out dto.StatusResponse
	if err := c.getJSON(ctx, "/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchSnapshot descarga el dataset completo. Sin reintentos.
func (c *Client) FetchSnapshot(ctx context.Context) (*entity.Dataset, error) {
	if !c.Enabled() {
		return nil, domain.ErrMirrorDisabled
	}
	var ds entity.Dataset
	if err := c.getJSON(ctx, "/sync", &ds); err != nil {
		return nil, err
	}
	ds = ds.Normalize()
	return &ds, nil
}

// PushUsers envía la lista completa de usuarios (no un delta).
func (c *Client) PushUsers(ctx context.Context, users []entity.User) error {
	if users == nil {
		users = []entity.User{}
	}
	return c.send(ctx, http.MethodPost, "/users", users)
}

// PushOrder upsert de una OC.
func (c *Client) PushOrder(ctx context.Context, order entity.Order) error {
	return c.send(ctx, http.MethodPost, "/orders", order)
}

// PushCliche upsert de un clichê.
func (c *Client) PushCliche(ctx context.Context, item entity.ClicheItem) error {
	return c.send(ctx, http.MethodPost, "/cliches", item)
}

// DeleteOrder elimina una OC por id.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/orders/"+url.PathEscape(id), nil)
}

// PushLog agrega una entrada de actividad.
func (c *Client) PushLog(ctx context.Context, entry entity.ActivityLog) error {
	return c.send(ctx, http.MethodPost, "/logs", entry)
}

// TestConnection prueba GET /api/status con límite duro de tiempo. Nunca devuelve error:
// cualquier falla (host vacío, timeout, HTTP no-2xx) es false.
func TestConnection(ctx context.Context, host string, port int, timeout time.Duration) bool {
	if host == "" {
		return false
	}
	if timeout <= 0 {
		timeout = DefaultTestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := NewClient(host, port, timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/status"), nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// endpoint arma la URL; si host ya trae puerto (host:port) se respeta.
func (c *Client) endpoint(path string) string {
	hostPort := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	if _, _, err := net.SplitHostPort(c.host); err == nil {
		hostPort = c.host
	}
	return "http://" + hostPort + "/api" + path
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("mirror: construir request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", domain.ErrMirrorUnreachable, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: GET %s: HTTP %d", domain.ErrMirrorUnreachable, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("mirror: decodificar %s: %w", path, err)
	}
	return nil
}

// send ejecuta una mutación. Deshabilitado = no-op.
func (c *Client) send(ctx context.Context, method, path string, body any) error {
	if !c.Enabled() {
		return nil
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("mirror: serializar %s: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("mirror: construir request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrMirrorUnreachable, method, path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s: HTTP %d", domain.ErrMirrorUnreachable, method, path, resp.StatusCode)
	}
	return nil
}
