package sqlite_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/domain/repository"
	"github.com/jhoicas/crs-vision/internal/infrastructure/sqlite"
)

func openStore(t *testing.T) (*sqlite.RecordStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "local.db")
	s := sqlite.NewRecordStore(path)
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func decodeOrders(t *testing.T, raw []json.RawMessage) map[string]entity.Order {
	t.Helper()
	out := make(map[string]entity.Order, len(raw))
	for _, r := range raw {
		var o entity.Order
		require.NoError(t, json.Unmarshal(r, &o))
		out[o.ID] = o
	}
	return out
}

func TestRecordStore_PutReemplazaPorID(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, repository.CollectionOrders, "o1", entity.Order{ID: "o1", Client: "Acme", Status: entity.StatusPending}))
	require.NoError(t, s.Put(ctx, repository.CollectionOrders, "o1", entity.Order{ID: "o1", Client: "Acme", Status: entity.StatusInProgress}))

	raw, err := s.GetAll(ctx, repository.CollectionOrders)
	require.NoError(t, err)
	orders := decodeOrders(t, raw)
	require.Len(t, orders, 1)
	assert.Equal(t, entity.StatusInProgress, orders["o1"].Status)
}

func TestRecordStore_DeleteInexistenteEsNoOp(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, repository.CollectionUsers, "nadie"))

	require.NoError(t, s.Put(ctx, repository.CollectionUsers, "u2", entity.User{ID: "u2", Name: "Ana"}))
	require.NoError(t, s.Delete(ctx, repository.CollectionUsers, "u2"))
	raw, err := s.GetAll(ctx, repository.CollectionUsers)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestRecordStore_ColeccionesIndependientes(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, repository.CollectionCliches, "x", entity.ClicheItem{ID: "x"}))
	raw, err := s.GetAll(ctx, repository.CollectionOrders)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestRecordStore_ColeccionDesconocida(t *testing.T) {
	s, _ := openStore(t)
	_, err := s.GetAll(context.Background(), repository.Collection("invoices"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordStore_PersisteTrasReabrir(t *testing.T) {
	s, path := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, repository.CollectionUsers, "u1", entity.BootstrapAdmin()))
	require.NoError(t, s.Close())

	reopened := sqlite.NewRecordStore(path)
	require.NoError(t, reopened.Initialize(ctx))
	defer reopened.Close()

	raw, err := reopened.GetAll(ctx, repository.CollectionUsers)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	var u entity.User
	require.NoError(t, json.Unmarshal(raw[0], &u))
	assert.Equal(t, entity.BootstrapAdminID, u.ID)
}

func TestRecordStore_ReplaceVaciaYRepuebla(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, repository.CollectionOrders, "viejo", entity.Order{ID: "viejo"}))
	require.NoError(t, s.Put(ctx, repository.CollectionLogs, "l0", entity.ActivityLog{ID: "l0"}))

	err := s.Replace(ctx, map[repository.Collection][]repository.Record{
		repository.CollectionOrders: {
			{ID: "n1", Value: entity.Order{ID: "n1"}},
			{ID: "n2", Value: entity.Order{ID: "n2"}},
		},
		repository.CollectionLogs: nil,
	})
	require.NoError(t, err)

	raw, err := s.GetAll(ctx, repository.CollectionOrders)
	require.NoError(t, err)
	orders := decodeOrders(t, raw)
	assert.Len(t, orders, 2)
	assert.NotContains(t, orders, "viejo")

	logs, err := s.GetAll(ctx, repository.CollectionLogs)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestRecordStore_SinInicializar(t *testing.T) {
	s := sqlite.NewRecordStore(filepath.Join(t.TempDir(), "x.db"))
	err := s.Put(context.Background(), repository.CollectionUsers, "u", entity.User{})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}
