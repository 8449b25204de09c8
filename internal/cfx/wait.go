package cfx

import (
	"context"
	"time"

	"github.com/msto63/cfdkit/foundation/utils/filex"
)

// DefaultPollInterval is used by WaitForFile when no interval is given
const DefaultPollInterval = time.Second

// WaitForFile polls until path exists. It returns false without error when
// timeout passes first; nothing is killed. A cancelled ctx returns its error.
func WaitForFile(ctx context.Context, path string, timeout, interval time.Duration) (bool, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if filex.Exists(path) {
		return true, nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline:
			return filex.Exists(path), nil
		case <-ticker.C:
			if filex.Exists(path) {
				return true, nil
			}
		}
	}
}
