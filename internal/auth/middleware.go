package auth

import (
	"net/http"
	"net/url"

	"github.com/copytop/printshop/internal/shared"
)

// RequireGate redirects to the gate form unless the session has unlocked the
// section.
func RequireGate(section string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFrom(r.Context())
			if Granted(sess, section) {
				next.ServeHTTP(w, r)
				return
			}
			target := "/auth/gate?section=" + url.QueryEscape(section) + "&next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}
