package common

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInterrupted(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	assert.NoError(t, Interrupted(context.Background(), logger, "read archive"))
	assert.Empty(t, logs.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Interrupted(ctx, logger, "read archive"), context.Canceled)
	assert.Contains(t, logs.String(), `"operation":"read archive"`)

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	assert.ErrorIs(t, Interrupted(expired, zerolog.Nop(), "read archive"), context.DeadlineExceeded)
}
