package mirror_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crs-vision/internal/application/mirror"
	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/infrastructure/jsonfile"
)

func loadedHub(t *testing.T) (*mirror.Hub, *jsonfile.DatasetFile) {
	t.Helper()
	file := jsonfile.NewDatasetFile(filepath.Join(t.TempDir(), "network_db.json"))
	h := mirror.NewHub(file, zerolog.Nop())
	require.NoError(t, h.Load(context.Background()))
	return h, file
}

func TestHub_LoadCreaDatosIniciales(t *testing.T) {
	h, file := loadedHub(t)

	snap := h.Snapshot()
	require.Len(t, snap.Users, 1)
	assert.Equal(t, entity.BootstrapAdminID, snap.Users[0].ID)
	assert.NotNil(t, snap.Orders)

	onDisk, err := file.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, onDisk.Users, 1)
}

func TestHub_LoadRecreaArchivoCorrupto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network_db.json")
	require.NoError(t, os.WriteFile(path, []byte("{roto"), 0o644))

	h := mirror.NewHub(jsonfile.NewDatasetFile(path), zerolog.Nop())
	require.NoError(t, h.Load(context.Background()))
	assert.Len(t, h.Snapshot().Users, 1)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Weverton Ergang")
}

func TestHub_UpsertYDeleteOrder(t *testing.T) {
	h, file := loadedHub(t)
	ctx := context.Background()

	require.NoError(t, h.UpsertOrder(ctx, entity.Order{ID: "o1", Client: "Acme"}))
	require.NoError(t, h.UpsertOrder(ctx, entity.Order{ID: "o2", Client: "Beta"}))
	require.NoError(t, h.UpsertOrder(ctx, entity.Order{ID: "o1", Client: "Acme SA"}))

	orders := h.Snapshot().Orders
	require.Len(t, orders, 2)
	assert.Equal(t, "Acme SA", orders[0].Client, "el upsert conserva la posición")

	require.NoError(t, h.DeleteOrder(ctx, "o1"))
	require.NoError(t, h.DeleteOrder(ctx, "inexistente"))
	onDisk, err := file.Load(ctx)
	require.NoError(t, err)
	require.Len(t, onDisk.Orders, 1)
	assert.Equal(t, "o2", onDisk.Orders[0].ID)

	assert.ErrorIs(t, h.UpsertOrder(ctx, entity.Order{}), domain.ErrInvalidInput)
}

func TestHub_ReplaceUsersYCliches(t *testing.T) {
	h, _ := loadedHub(t)
	ctx := context.Background()

	require.NoError(t, h.ReplaceUsers(ctx, []entity.User{{ID: "u9", Name: "Z", Role: entity.RoleAdmin}}))
	users := h.Snapshot().Users
	require.Len(t, users, 1)
	assert.Equal(t, "u9", users[0].ID)

	require.NoError(t, h.UpsertCliche(ctx, entity.ClicheItem{ID: "c1", Status: entity.ClicheSent}))
	require.NoError(t, h.UpsertCliche(ctx, entity.ClicheItem{ID: "c1", Status: entity.ClicheReceived}))
	cliches := h.Snapshot().Cliches
	require.Len(t, cliches, 1)
	assert.Equal(t, entity.ClicheReceived, cliches[0].Status)
}

func TestHub_PrependLogRecorta(t *testing.T) {
	h, _ := loadedHub(t)
	ctx := context.Background()

	for i := 0; i < entity.MaxActivityLogs+3; i++ {
		require.NoError(t, h.PrependLog(ctx, entity.ActivityLog{ID: fmt.Sprintf("l%d", i)}))
	}
	logs := h.Snapshot().Logs
	require.Len(t, logs, entity.MaxActivityLogs)
	assert.Equal(t, fmt.Sprintf("l%d", entity.MaxActivityLogs+2), logs[0].ID)
}

func TestHub_PersisteEntreReinicios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network_db.json")
	ctx := context.Background()

	h := mirror.NewHub(jsonfile.NewDatasetFile(path), zerolog.Nop())
	require.NoError(t, h.Load(ctx))
	require.NoError(t, h.UpsertOrder(ctx, entity.Order{ID: "o1", OCNumber: "77"}))

	again := mirror.NewHub(jsonfile.NewDatasetFile(path), zerolog.Nop())
	require.NoError(t, again.Load(ctx))
	require.Len(t, again.Snapshot().Orders, 1)
	assert.Equal(t, "77", again.Snapshot().Orders[0].OCNumber)
}
