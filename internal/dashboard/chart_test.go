package dashboard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salesdash/salesdash/internal/analytics/ui"
)

func TestChartHandleLifecycle(t *testing.T) {
	h := NewChartHandle(StoresComparisonChart, TitleStores, "Ventes", nil)
	require.Equal(t, PhaseUninitialized, h.Phase())
	require.True(t, h.State().Empty())

	created, err := h.Draw(ui.KindBar, []string{"a", "b"}, []float64{1, 2})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, PhaseRendered, h.Phase())
	require.Equal(t, 1, h.State().Revision)

	created, err = h.Draw(ui.KindBar, []string{"b", "a"}, []float64{2, 1})
	require.NoError(t, err)
	require.False(t, created, "same kind must update in place")
	require.Equal(t, 2, h.State().Revision)
	require.Equal(t, 1, h.Generations())

	created, err = h.Draw(ui.KindPie, []string{"b", "a"}, []float64{2, 1})
	require.NoError(t, err)
	require.True(t, created, "kind change must recreate")
	require.Equal(t, ui.KindPie, h.Kind())
	require.Equal(t, 1, h.State().Revision)
	require.Equal(t, 2, h.Generations())
}

func TestChartHandleDestroy(t *testing.T) {
	h := NewChartHandle(SalesTrendChart, TitleSalesTrend, "", nil)
	h.Destroy()
	require.Equal(t, PhaseUninitialized, h.Phase(), "destroying an unused canvas is a no-op")

	_, err := h.Draw(ui.KindLine, []string{"x"}, []float64{1})
	require.NoError(t, err)
	h.Destroy()
	require.Equal(t, PhaseDestroyed, h.Phase())
	require.True(t, h.State().Empty())

	created, err := h.Draw(ui.KindLine, []string{"x"}, []float64{3})
	require.NoError(t, err)
	require.True(t, created)
}

func TestChartHandleRejectsBadInput(t *testing.T) {
	h := NewChartHandle(SalesTrendChart, TitleSalesTrend, "", nil)
	_, err := h.Draw("radar", nil, nil)
	require.Error(t, err)
	_, err = h.Draw(ui.KindLine, []string{"a"}, []float64{1, 2})
	require.Error(t, err)
	require.Equal(t, PhaseUninitialized, h.Phase())
}

func TestChartHandleStateIsCopied(t *testing.T) {
	h := NewChartHandle(SalesTrendChart, TitleSalesTrend, "", nil)
	labels := []string{"a"}
	_, err := h.Draw(ui.KindLine, labels, []float64{1})
	require.NoError(t, err)
	labels[0] = "mutated"
	state := h.State()
	state.Series[0] = 42
	require.Equal(t, "a", h.State().Labels[0])
	require.Equal(t, 1.0, h.State().Series[0])
}
