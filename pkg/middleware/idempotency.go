package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/diagnosis/visitor-register/pkg/logger"
)

const IdempotencyHeader = "Idempotency-Key"

// idempotencyPending marks a key whose first request is still running.
const idempotencyPending = "\x00pending"

// idempotencyLease bounds how long a crashed request can hold a key.
const idempotencyLease = 30 * time.Second

// IdempotencyStore keeps replayable responses for POST requests.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyMiddleware replays the first successful response for a repeated
// Idempotency-Key. Replays answer 200 so clients can tell them apart from the
// original 201. Keys are scoped per caller by scope(r) when scope is non-nil.
//
// The key is reserved before the handler runs; a second request arriving
// while the first is in flight gets 409 instead of running the handler again.
func IdempotencyMiddleware(store IdempotencyStore, ttl time.Duration, scope func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if scope != nil {
				key = scope(r) + ":" + key
			}

			ctx := r.Context()
			hashedKey := fmt.Sprintf("idempotency:%x", sha256.Sum256([]byte(key)))

			reserved, err := store.SetNX(ctx, hashedKey, idempotencyPending, idempotencyLease)
			if err != nil {
				// store down: serve without replay protection
				logger.WarnContext(ctx, "Idempotency reservation failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !reserved {
				existing, err := store.Get(ctx, hashedKey)
				switch {
				case err != nil:
					logger.WarnContext(ctx, "Idempotency lookup failed", "error", err)
					writeInProgress(w)
				case existing == "" || existing == idempotencyPending:
					writeInProgress(w)
				default:
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(http.StatusOK)
					w.Write([]byte(existing))
				}
				return
			}

			recorder := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			status := recorder.statusCode
			if status == 0 {
				status = http.StatusOK
			}
			// the request may be gone by now; finish the bookkeeping anyway
			bg := context.WithoutCancel(ctx)
			if status >= 200 && status < 300 {
				if err := store.Set(bg, hashedKey, string(recorder.body), ttl); err != nil {
					logger.WarnContext(ctx, "Idempotency store failed", "error", err)
				}
				return
			}
			if err := store.Delete(bg, hashedKey); err != nil {
				logger.WarnContext(ctx, "Idempotency release failed", "error", err)
			}
		})
	}
}

func writeInProgress(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusConflict)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "A request with this Idempotency-Key is already in progress",
		"code":  "IDEMPOTENCY_IN_PROGRESS",
	})
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(body []byte) (int, error) {
	r.body = append(r.body, body...)
	return r.ResponseWriter.Write(body)
}
