package middleware

import (
	"net/http"
	"strings"
)

// BearerToken returns the token of an "Authorization: Bearer" header, or ""
// when there is none.
func BearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
