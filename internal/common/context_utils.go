package common

import (
	"context"

	"github.com/rs/zerolog"
)

// Interrupted returns ctx.Err() and logs operation at info level when ctx is
// done. It never blocks.
func Interrupted(ctx context.Context, logger zerolog.Logger, operation string) error {
	err := ctx.Err()
	if err != nil {
		logger.Info().Str("operation", operation).AnErr("reason", err).Msg("Operation interrupted")
	}
	return err
}
