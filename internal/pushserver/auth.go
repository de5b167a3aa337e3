package pushserver

import (
	"net/http"
	"strings"

	"github.com/flipdot/driver/internal/config"
)

// checkAuth validates the request against the configured credential,
// exactly as documented in spec.md section 6: either a bearer token in the
// Authorization header, or an API key under a configured header name. An
// unconfigured auth.Type (the zero value) admits every request.
func checkAuth(r *http.Request, auth config.Auth) bool {
	switch auth.Type {
	case config.AuthNone:
		return true
	case config.AuthBearer:
		const prefix = "Bearer "
		got := r.Header.Get("Authorization")
		return strings.HasPrefix(got, prefix) && got[len(prefix):] == auth.Token
	case config.AuthAPIKey:
		return r.Header.Get(auth.HeaderName) == auth.Key
	default:
		return false
	}
}
