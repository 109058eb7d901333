package observability

import (
	"net/http"
	"runtime/debug"
)

// RecoverPanic wraps an HTTP handler with panic recovery. Panics are
// logged with the stack trace and converted to 500 responses.
func RecoverPanic(logger *Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.WithFields(map[string]interface{}{
					"panic":  rec,
					"stack":  string(debug.Stack()),
					"method": r.Method,
					"path":   r.URL.Path,
				}).Error("recovered from panic in request handler")

				http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RecoverGoroutine recovers from panics in background goroutines so a
// single worker failure does not crash the process
func RecoverGoroutine(logger *Logger, name string) {
	if rec := recover(); rec != nil {
		logger.WithFields(map[string]interface{}{
			"goroutine": name,
			"panic":     rec,
			"stack":     string(debug.Stack()),
		}).Error("recovered from panic in goroutine")
	}
}
