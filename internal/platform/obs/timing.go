package obs

import (
	"context"
	"time"

	"postcode-tracker/internal/platform/logger"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores the request id used to correlate timing lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of op when the returned func is deferred:
//
//	defer obs.Time(ctx, "resolver.ByPostcode")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	reqID := RequestID(ctx)
	log := logger.GetLogger("obs")

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Debugw("op failed", "req_id", reqID, "op", name, "dur", dur, "err", *errp)
			return
		}
		log.Debugw("op done", "req_id", reqID, "op", name, "dur", dur)
	}
}
