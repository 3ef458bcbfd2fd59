package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestControllerAcquireRelease(t *testing.T) {
	limits := NewLimits(1, 1)
	controller := NewController(limits)

	require.Equal(t, limits, controller.LimitsSnapshot())

	require.NoError(t, controller.AcquireRequest(context.Background()))
	controller.ReleaseRequest()

	require.NoError(t, controller.AcquireWorkbook(context.Background()))
	controller.ReleaseWorkbook()
}

func TestNewLimits_Fallbacks(t *testing.T) {
	limits := NewLimits(0, 0)
	require.Equal(t, 10, limits.MaxConcurrentRequests)
	require.Equal(t, 4, limits.MaxOpenWorkbooks)
	require.Equal(t, 10_000, limits.MaxCellsPerOp)
	require.Equal(t, 10, limits.PreviewRowLimit)
	require.Positive(t, limits.OperationTimeout)
	require.Positive(t, limits.AcquireRequestTimeout)
}
