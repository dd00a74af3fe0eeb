package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecentRunsNewestFirst(t *testing.T) {
	m := NewMemory(10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.SaveRun(ctx, Run{
			ID:        fmt.Sprintf("run-%d", i),
			Language:  "python",
			CreatedAt: time.Now(),
		}))
	}

	runs, err := m.RecentRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-0", runs[2].ID)
}

func TestMemoryLimit(t *testing.T) {
	m := NewMemory(10)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		m.SaveRun(ctx, Run{ID: fmt.Sprintf("run-%d", i)})
	}

	runs, err := m.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-4", runs[0].ID)
}

func TestMemoryBoundedCapacity(t *testing.T) {
	m := NewMemory(3)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		m.SaveRun(ctx, Run{ID: fmt.Sprintf("run-%d", i)})
	}

	runs, err := m.RecentRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-9", runs[0].ID)
	assert.Equal(t, "run-7", runs[2].ID)
}
