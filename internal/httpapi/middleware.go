package httpapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	maxLogBodyBytes = 2048
)

// statusRecorder captures the status, the byte count and the first
// maxLogBytes of the body for request logging.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	wroteHeader  bool
	maxLogBytes  int
	bytesWritten int
	logBody      bytes.Buffer
	truncated    bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	if room := r.maxLogBytes - r.logBody.Len(); room > 0 {
		if len(p) > room {
			r.logBody.Write(p[:room])
			r.truncated = true
		} else {
			r.logBody.Write(p)
		}
	} else if len(p) > 0 {
		r.truncated = true
	}

	n, err := r.ResponseWriter.Write(p)
	r.bytesWritten += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// instrument tags each request with an id, recovers panics, logs the outcome
// and feeds the HTTP collectors. It must wrap the mux directly so the matched
// pattern is visible afterwards.
func (a *API) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			maxLogBytes:    maxLogBodyBytes,
		}

		if a.metrics != nil {
			a.metrics.RequestsInFlight.Inc()
			defer a.metrics.RequestsInFlight.Dec()
		}

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.log.Error("handler panic", "request_id", requestID, "panic", rec)
				if !recorder.wroteHeader {
					writeJSON(recorder, http.StatusInternalServerError, errorResponse{Error: "request failed"})
				}
			}

			elapsed := time.Since(start)
			if a.metrics != nil {
				a.metrics.ObserveRequest(r.Method, r.Pattern, recorder.statusCode, elapsed)
			}

			fields := []any{
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"route", r.Pattern,
				"status", recorder.statusCode,
				"bytes", recorder.bytesWritten,
				"duration", elapsed,
			}
			switch {
			case recorder.statusCode >= http.StatusInternalServerError:
				fields = append(fields, "body", recorder.logBody.String(), "body_truncated", recorder.truncated)
				a.log.Error("request failed", fields...)
			case recorder.statusCode >= http.StatusBadRequest:
				a.log.Warn("request rejected", fields...)
			default:
				a.log.Info("request handled", fields...)
			}
		}()

		next.ServeHTTP(recorder, r)
	})
}
