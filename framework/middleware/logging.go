package middleware

import (
	"time"

	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/logging"
)

// requestLog writes one structured line per request after the rest of
// the chain finishes. Failed requests log before the classifier writes
// the status, so their line carries the error instead.
func (b *Builder) requestLog() dispatch.Middleware {
	return func(c *dispatch.Context, next dispatch.Next) error {
		start := time.Now()
		err := next()

		fields := logging.Fields{
			"request_id": c.RequestID,
			"method":     c.Method(),
			"path":       c.Path(),
			"duration":   time.Since(start).String(),
		}
		if err != nil {
			b.log.WithFields(fields).WithError(err).Warn("request failed")
			return err
		}
		fields["status"] = c.Status()
		b.log.WithFields(fields).Info("request handled")
		return nil
	}
}
