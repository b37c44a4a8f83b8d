package splitter

import (
	"context"
	"time"

	"github.com/arnkore/chunksplit/internal/dbadapter"
	log "github.com/sirupsen/logrus"
)

// throttleInterval and throttleEvery pace the server round-trips the
// unevenly-sized boundary walk issues, sleeping 100ms every 10
// iterations rather than a single longer sleep every 100 — the same
// net rate, applied in smaller, more frequent increments.
const (
	throttleEvery    = 10
	throttleInterval = 100 * time.Millisecond
)

// throttle sleeps for throttleInterval every throttleEvery iterations,
// including the very first (count == 0), matching the source's
// post-increment call pattern. It is a pure function of the iteration
// count; no shared state. An interrupted sleep (ctx cancelled mid-wait)
// is treated as a wake, not an abort: the splitter's own cancellation
// check happens at the next adapter call instead.
func throttle(ctx context.Context, count int, table dbadapter.TableID) {
	if count%throttleEvery != 0 {
		return
	}
	timer := time.NewTimer(throttleInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	log.WithFields(log.Fields{"table": table.String(), "chunks_split": count}).
		Info("chunk splitter throttling to avoid overloading source")
}
