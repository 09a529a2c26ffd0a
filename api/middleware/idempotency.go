package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/aether-storefront/api/responses"
	pkgerrors "github.com/angelmondragon/aether-storefront/pkg/errors"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
)

const (
	idempotencyHeader = "Idempotency-Key"

	DefaultIdempotencyTTL  = 24 * time.Hour
	CriticalIdempotencyTTL = 7 * 24 * time.Hour
)

type idempotencyRecord struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// Idempotency replays the stored response when a request repeats its Idempotency-Key.
// Requests without the header pass through. It must run inside Profile: records are
// kept in the profile-scoped store and the profile lock makes check-then-store atomic.
func Idempotency(store kv.Store, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if idempotencyKey == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := recordKey(r.Method, r.URL.Path, idempotencyKey)

			var stored idempotencyRecord
			found, err := kv.GetJSON(ctx, store, key, &stored)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if found && time.Now().Before(stored.ExpiresAt) {
				if stored.RequestHash != requestHash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				w.Header().Set("Idempotent-Replayed", "true")
				writeStoredResponse(w, stored)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusInternalServerError {
				return
			}
			record := idempotencyRecord{
				Status:      defaultStatus(rec.status),
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				RequestHash: requestHash,
				ExpiresAt:   time.Now().Add(ttl),
			}
			if ct := rec.Header().Get("Content-Type"); ct != "" {
				record.Headers = map[string]string{"Content-Type": ct}
			}
			if err := kv.SetJSON(ctx, store, key, record); err != nil {
				logError(ctx, logg, "persist idempotency record", err)
			}
		})
	}
}

func recordKey(method, path, idempotencyKey string) string {
	sum := sha256.Sum256([]byte(method + "|" + path + "|" + idempotencyKey))
	return kv.KeyIdempotencyPrefix + base64.RawURLEncoding.EncodeToString(sum[:])
}

func writeStoredResponse(w http.ResponseWriter, record idempotencyRecord) {
	if ct, ok := record.Headers["Content-Type"]; ok && ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func defaultStatus(value int) int {
	if value == 0 {
		return http.StatusOK
	}
	return value
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
