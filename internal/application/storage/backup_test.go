package storage_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crs-vision/internal/application/storage"
	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/domain/repository"
)

func TestBackupFileName(t *testing.T) {
	at := time.Date(2024, 11, 5, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "crs_vision_backup_2024-11-05.json", storage.BackupFileName(at))
}

func TestCreateBackup_Formato(t *testing.T) {
	s := readyLocal(t, newMemStore())
	_, err := s.SaveOrder(sampleOrder("o1"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.CreateBackup(&buf))

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &top))
	for _, k := range []string{"orders", "users", "cliches", "logs", "timestamp", "version"} {
		assert.Contains(t, top, k)
	}
	assert.JSONEq(t, `"2.0-Network"`, string(top["version"]))
	assert.JSONEq(t, `[]`, string(top["cliches"]), "colección vacía se serializa como arreglo")
	assert.Contains(t, buf.String(), "\n  \"orders\"", "JSON indentado")
}

func TestBackup_IdaYVuelta(t *testing.T) {
	src := readyLocal(t, newMemStore())
	_, err := src.AddUser(entity.User{ID: "u2", Name: "Ana", Role: entity.RoleSalesperson, Password: "1"})
	require.NoError(t, err)
	_, err = src.SaveOrder(sampleOrder("o1"))
	require.NoError(t, err)
	_, err = src.SaveCliche(entity.ClicheItem{ID: "c1", Description: "Tampa", Client: "Acme", Status: entity.ClicheSent})
	require.NoError(t, err)
	_, err = src.AddLog("Nueva OC", "OC-o1", "Ana", entity.LogCreate)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.CreateBackup(&buf))

	store := newMemStore()
	dst := readyLocal(t, store)
	_, err = dst.SaveOrder(sampleOrder("vieja"))
	require.NoError(t, err)

	require.NoError(t, dst.RestoreBackup(context.Background(), &buf))

	assert.Equal(t, src.Snapshot(), dst.Snapshot())
	assert.Equal(t, 2, store.count(repository.CollectionUsers))
	assert.Equal(t, 1, store.count(repository.CollectionOrders))
	assert.False(t, store.has(repository.CollectionOrders, "vieja"))
	assert.True(t, store.has(repository.CollectionCliches, "c1"))
	assert.Equal(t, 1, store.count(repository.CollectionLogs))

	ops := store.operations()
	assert.Equal(t, "replace", ops[len(ops)-1], "la reproducción va después de las escrituras previas")
}

func TestRestoreBackup_RemotoReproduceCadaRegistro(t *testing.T) {
	store := newMemStore()
	mirror := &fakeMirror{host: "srv", snapshot: entity.Dataset{Users: []entity.User{entity.BootstrapAdmin()}}}
	s := newService(t, store, mirror)
	require.NoError(t, s.Initialize(context.Background()))

	backup := `{
		"users": [{"id":"u1","name":"Weverton Ergang","role":"admin","password":"938567"}],
		"orders": [{"id":"o1","ocNumber":"1","client":"A","priority":"urgent","status":"pending","dueDate":"2024-03-08","salesperson":"Ana"},
		           {"id":"o2","ocNumber":"2","client":"B","priority":"normal","status":"pending","dueDate":"2024-03-09","salesperson":"Ana"}],
		"cliches": [{"id":"c1","description":"Tampa","client":"A","status":"sent"}],
		"logs": [{"id":"l1","action":"x","type":"info"}]
	}`
	require.NoError(t, s.RestoreBackup(context.Background(), strings.NewReader(backup)))

	assert.Equal(t, []string{"users", "order o1", "order o2", "cliche c1"}, mirror.callList())
	assert.Len(t, s.Logs(), 1)
	assert.Empty(t, store.operations(), "modo remoto no toca el almacén local")
}

func TestRestoreBackup_FallaDeReproduccion(t *testing.T) {
	mirror := &fakeMirror{host: "srv", snapshot: entity.Dataset{Users: []entity.User{entity.BootstrapAdmin()}}}
	s := newService(t, newMemStore(), mirror)
	require.NoError(t, s.Initialize(context.Background()))
	mirror.mu.Lock()
	mirror.pushErr = domain.ErrMirrorUnreachable
	mirror.mu.Unlock()

	err := s.RestoreBackup(context.Background(), strings.NewReader(`{"users":[{"id":"u9","name":"Z","role":"admin"}]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRestoreIncomplete)
	assert.ErrorIs(t, err, domain.ErrMirrorUnreachable)
	// El caché ya quedó reemplazado.
	require.Len(t, s.Users(), 1)
	assert.Equal(t, "u9", s.Users()[0].ID)
}

func TestRestoreBackup_InvalidoNoCambiaNada(t *testing.T) {
	store := newMemStore()
	s := readyLocal(t, store)
	_, err := s.SaveOrder(sampleOrder("o1"))
	require.NoError(t, err)
	flush(t, s)
	before := s.Snapshot()
	opsBefore := len(store.operations())

	err = s.RestoreBackup(context.Background(), strings.NewReader(`{"orders":[]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidBackup)

	flush(t, s)
	assert.Equal(t, before, s.Snapshot())
	assert.Len(t, store.operations(), opsBefore)
}

func TestParseBackup_FallasDetalladas(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []storage.BackupErrorKind
	}{
		{"no es JSON", `hola`, []storage.BackupErrorKind{storage.BackupMalformed}},
		{"arreglo en la raíz", `[1,2]`, []storage.BackupErrorKind{storage.BackupMalformed}},
		{"sin users", `{"orders":[]}`, []storage.BackupErrorKind{storage.BackupMissingField}},
		{"users null", `{"users":null}`, []storage.BackupErrorKind{storage.BackupMissingField}},
		{"orders no es lista", `{"users":[],"orders":{"id":"o1"}}`, []storage.BackupErrorKind{storage.BackupNotAList}},
		{
			"registros inválidos",
			`{"users":[{"id":""}],"orders":[42],"cliches":[{"id":"c1"}]}`,
			[]storage.BackupErrorKind{storage.BackupMissingID, storage.BackupInvalidRecord},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := storage.ParseBackup(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidBackup)

			var kinds []storage.BackupErrorKind
			for _, e := range flatten(err) {
				var fe *storage.BackupFieldError
				if errors.As(e, &fe) {
					kinds = append(kinds, fe.Kind)
				}
			}
			assert.Equal(t, tc.want, kinds)
		})
	}
}

func TestParseBackup_ColeccionesOpcionales(t *testing.T) {
	ds, err := storage.ParseBackup(strings.NewReader(`{"users":[{"id":"u1","name":"A","role":"admin"}]}`))
	require.NoError(t, err)
	assert.Len(t, ds.Users, 1)
	assert.NotNil(t, ds.Orders)
	assert.NotNil(t, ds.Cliches)
	assert.NotNil(t, ds.Logs)
}

func TestBackupFieldError_Mensaje(t *testing.T) {
	err := &storage.BackupFieldError{Field: "orders", Index: 3, Kind: storage.BackupMissingID}
	assert.Equal(t, "respaldo inválido: orders[3]: missing-id", err.Error())
	assert.ErrorIs(t, err, domain.ErrInvalidBackup)
}

// flatten expande errors.Join en sus componentes.
func flatten(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		if _, isField := err.(*storage.BackupFieldError); !isField {
			return j.Unwrap()
		}
	}
	return []error{err}
}

func TestRestoreBackup_ConservaLosLogsMasRecientes(t *testing.T) {
	total := entity.MaxActivityLogs + 5
	logs := make([]entity.ActivityLog, 0, total)
	for i := 0; i < total; i++ {
		logs = append(logs, entity.ActivityLog{
			ID:        fmt.Sprintf("l%04d", i),
			Action:    "a",
			Timestamp: t0.Add(time.Duration(i) * time.Minute),
			Type:      entity.LogInfo,
		})
	}
	raw, err := json.Marshal(entity.Backup{
		Users: []entity.User{entity.BootstrapAdmin()},
		Logs:  logs, // más antiguo primero
	})
	require.NoError(t, err)

	store := newMemStore()
	s := readyLocal(t, store)
	require.NoError(t, s.RestoreBackup(context.Background(), bytes.NewReader(raw)))

	got := s.Logs()
	require.Len(t, got, entity.MaxActivityLogs)
	assert.Equal(t, fmt.Sprintf("l%04d", total-1), got[0].ID)
	assert.Equal(t, "l0005", got[len(got)-1].ID)
	assert.Equal(t, entity.MaxActivityLogs, store.count(repository.CollectionLogs))
	assert.False(t, store.has(repository.CollectionLogs, "l0000"))
}
