package runtime

import (
	"time"

	logpkg "github.com/aliyun/tablestore-timeline-sub000/pkg/log"
)

// commitLogger reports failed commits, and commits slower than slow, to the
// process logger.
type commitLogger struct {
	logger logpkg.Logger
	slow   time.Duration
}

func (c commitLogger) ObserveCommit(elapsed time.Duration, ops int, bytes int, err error) {
	switch {
	case err != nil:
		c.logger.Warn("commit failed", logpkg.Int("ops", ops), logpkg.Int("bytes", bytes), logpkg.Err(err))
	case c.slow > 0 && elapsed >= c.slow:
		c.logger.Warn("slow commit", logpkg.Duration("elapsed", elapsed), logpkg.Int("ops", ops), logpkg.Int("bytes", bytes))
	}
}

func (commitLogger) ObserveGet(time.Duration, int) {}
