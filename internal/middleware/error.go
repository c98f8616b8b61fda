package middleware

import (
	"bufio"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// responseRecorder holds back non-JSON error responses so they can be
// rewritten as JSON
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	held        bool
	body        strings.Builder
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.statusCode = statusCode
	if statusCode >= 400 && !strings.HasPrefix(r.Header().Get("Content-Type"), "application/json") {
		r.held = true
		return
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	if r.held {
		r.body.Write(b)
		return len(b), nil
	}
	return r.ResponseWriter.Write(b)
}

// Hijack lets websocket upgrades through the recorder
func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijacking not supported")
	}
	r.wroteHeader = true
	return h.Hijack()
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok && !r.held {
		f.Flush()
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Del("Content-Length")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// ErrorHandler recovers panics and turns plain-text error responses into
// JSON. Handlers that already answer with JSON are passed through.
func ErrorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Printf("[ErrorHandler] Panic serving %s %s: %v", r.Method, r.URL.Path, err)
				if !rec.wroteHeader || rec.held {
					writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
				}
			} else if rec.held {
				message := strings.TrimSpace(rec.body.String())
				if message == "" {
					message = http.StatusText(rec.statusCode)
				}
				writeJSONError(w, rec.statusCode, message)
			}
		}()

		next.ServeHTTP(rec, r)
	})
}
