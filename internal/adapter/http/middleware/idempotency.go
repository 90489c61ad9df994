package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/metrics"
	"github.com/iho/digipay/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"
)

// IdempotencyMiddleware replays the stored response of a mutating request
// that carries an already-seen Idempotency-Key. Keys are scoped to the
// authenticated caller, so it must run after Authenticate.
type IdempotencyMiddleware struct {
	store   usecase.IdempotencyStore
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A zero ttl
// uses usecase.IdempotencyKeyTTL.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, m *metrics.Metrics) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, metrics: m}
}

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only apply to mutating requests
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if p, ok := PrincipalFromContext(r.Context()); ok {
			key = p.Subject() + ":" + key
		}

		ctx := r.Context()
		log := zerolog.Ctx(ctx)

		exists, cached, err := m.store.CheckAndSet(ctx, key, nil, m.ttl)
		if err != nil {
			m.storeError("idempotency_check")
			log.Error().Err(err).Msg("idempotency check failed")
			writeProblem(w, http.StatusInternalServerError, domain.KindInternal, "idempotency check failed")
			return
		}

		if exists {
			if string(cached) == usecase.IdempotencyInFlight {
				writeProblem(w, http.StatusConflict, domain.KindDuplicate, "a request with this idempotency key is in progress")
				return
			}

			var stored storedResponse
			if err := json.Unmarshal(cached, &stored); err != nil || stored.Status == 0 {
				log.Warn().Err(err).Msg("discarding unreadable idempotent response")
				writeProblem(w, http.StatusConflict, domain.KindDuplicate, "idempotency key already used")
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotencyReplayHeader, "true")
			w.WriteHeader(stored.Status)
			_, _ = w.Write(stored.Body)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		// Only successful responses are replayed; anything else frees the key.
		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			if err := m.store.Delete(ctx, key); err != nil {
				m.storeError("idempotency_delete")
				log.Warn().Err(err).Msg("failed to release idempotency key")
			}
			return
		}

		body := recorder.body.Bytes()
		if len(body) == 0 {
			body = []byte("null")
		}
		payload, err := json.Marshal(storedResponse{Status: recorder.statusCode, Body: body})
		if err != nil {
			log.Warn().Err(err).Msg("failed to encode idempotent response")
			return
		}
		if err := m.store.Update(ctx, key, payload, m.ttl); err != nil {
			m.storeError("idempotency_update")
			log.Warn().Err(err).Msg("failed to store idempotent response")
		}
	})
}

func (m *IdempotencyMiddleware) storeError(op string) {
	if m.metrics != nil {
		m.metrics.RedisErrors.WithLabelValues(op).Inc()
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
