package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/infrastructure/pdf"
)

func TestRenderProductionSheet(t *testing.T) {
	g := pdf.NewSheetGenerator(nil)
	orders := []entity.Order{
		{ID: "o1", OCNumber: "1001", Client: "Acme", Description: "Caja", Priority: entity.PriorityUrgent, Status: entity.StatusInProgress, DueDate: "2024-03-08"},
		{ID: "o2", OCNumber: "1002", Client: "Beta", Description: "Bolsa", Priority: entity.PriorityNormal, Status: entity.StatusPending, DueDate: "2024-03-11"},
	}

	doc, err := g.RenderProductionSheet(context.Background(), "Weverton Ergang", orders, time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")), "debe ser un documento PDF")
}

func TestRenderProductionSheet_SinOrdenes(t *testing.T) {
	doc, err := pdf.NewSheetGenerator(time.UTC).RenderProductionSheet(context.Background(), "", nil, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, doc)
}

func TestRenderProductionSheet_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pdf.NewSheetGenerator(nil).RenderProductionSheet(ctx, "x", nil, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
