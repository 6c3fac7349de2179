package server

import (
	"net/http"

	"github.com/amiddy/amiddy/internal/matching"
	"github.com/amiddy/amiddy/pkg/httputil"
)

// VhostHandler passes requests whose Host matches pattern to next and
// answers everything else with 404.
func VhostHandler(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !matching.MatchHost(pattern, r.Host) {
			httputil.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
