package docs_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	"github.com/jhoicas/crs-vision/docs"
)

type swaggerDoc struct {
	Info struct {
		Title   string `json:"title"`
		Version string `json:"version"`
	} `json:"info"`
	Paths       map[string]json.RawMessage `json:"paths"`
	Definitions map[string]json.RawMessage `json:"definitions"`
}

// El registro generado y swagger.json describen las mismas rutas.
func TestDocsSincronizados(t *testing.T) {
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	require.NoError(t, err)
	var registered swaggerDoc
	require.NoError(t, json.Unmarshal([]byte(raw), &registered))

	file, err := os.ReadFile("swagger.json")
	require.NoError(t, err)
	var onDisk swaggerDoc
	require.NoError(t, json.Unmarshal(file, &onDisk))

	assert.Equal(t, onDisk.Info, registered.Info)
	assert.Len(t, registered.Paths, len(onDisk.Paths))
	for path := range onDisk.Paths {
		assert.Contains(t, registered.Paths, path)
	}
	assert.Len(t, registered.Definitions, len(onDisk.Definitions))
}
