package listener

import (
	"context"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"campaign-console/internal/storage"
)

// Invalidator drops cached entries by campaign id.
type Invalidator interface {
	Invalidate(id string)
}

// ListenAndInvalidate evicts cached campaigns written by other sandbox
// instances. It joins the same channel st publishes on and returns when
// ctx is done.
func ListenAndInvalidate(ctx context.Context, st *storage.Store, inv Invalidator, baseBackoff time.Duration) {
	channel := st.ListenChannel()
	for {
		err := listen(ctx, st, inv, channel)
		if ctx.Err() != nil {
			log.Info().Msg("listener stopped")
			return
		}
		backoff := jitter(baseBackoff)
		log.Error().Err(err).Dur("retry_in", backoff).Msg("listener error")
		select {
		case <-ctx.Done():
			log.Info().Msg("listener stopped")
			return
		case <-time.After(backoff):
		}
	}
}

func listen(ctx context.Context, st *storage.Store, inv Invalidator, channel string) error {
	conn, err := st.PgxPool().Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return err
	}
	log.Info().Str("channel", channel).Msg("listening for campaign changes")

	for {
		ntf, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		log.Debug().Str("channel", ntf.Channel).Str("id", ntf.Payload).Msg("campaign changed; evicting")
		inv.Invalidate(ntf.Payload)
	}
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	factor := 0.5 + rand.Float64() // 0.5x-1.5x
	return time.Duration(float64(base) * factor)
}
