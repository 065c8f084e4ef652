package reqctx

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRunAssignsUUID(t *testing.T) {
	ctx := WithRun(context.Background())
	rc := Get(ctx)
	_, err := uuid.Parse(rc.RunID)
	require.NoError(t, err)
	assert.False(t, rc.StartTime.IsZero())
}

func TestWithTargetKeepsRunID(t *testing.T) {
	ctx := WithRun(context.Background())
	scoped := WithTarget(ctx, "jobs")

	assert.Equal(t, Get(ctx).RunID, Get(scoped).RunID)
	assert.Equal(t, "jobs", Get(scoped).Target)
	assert.Empty(t, Get(ctx).Target)
}

func TestGetWithoutRun(t *testing.T) {
	assert.Equal(t, "unknown", Get(context.Background()).RunID)
}

func TestRunError(t *testing.T) {
	ctx := WithRun(context.Background())
	base := errors.New("boom")
	err := NewRunError(ctx, base)
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), Get(ctx).RunID)
}
