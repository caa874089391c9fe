package middleware

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/lanes/internal/core"
)

// maxActorLen bounds the identity copied from a header into audit rows.
const maxActorLen = 128

// Actor stores the caller identity used on audit entries. It is read from
// header (typically X-Actor, set by the portal's auth proxy); when absent
// the fallback is used, and when that is empty the engine records
// core.SystemActor.
func Actor(header, fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := fallback
			if header != "" {
				if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
					actor = v
				}
			}
			actor = truncateActor(actor)
			if actor != "" {
				r = r.WithContext(core.ContextWithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// truncateActor drops invalid UTF-8 and cuts s to at most maxActorLen bytes
// without splitting a rune.
func truncateActor(s string) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= maxActorLen {
		return s
	}
	cut := 0
	for i := range s {
		if i > maxActorLen {
			break
		}
		cut = i
	}
	return s[:cut]
}
