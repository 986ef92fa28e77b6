// middleware/logging.go
package middleware

import (
	"log"
	"net/http"
	"time"
)

type respLogger struct {
	http.ResponseWriter
	status int
}

func (l *respLogger) WriteHeader(code int) {
	l.status = code
	l.ResponseWriter.WriteHeader(code)
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("→ %s %s", r.Method, r.URL.String())

		lw := &respLogger{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(lw, r)
		dur := time.Since(start)

		log.Printf("← %d %s (%s)", lw.status, http.StatusText(lw.status), dur)
	})
}
