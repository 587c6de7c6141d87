package wizard

import (
	"context"
	"net/http"
	"time"
)

// DraftCookie holds the draft token.
const DraftCookie = "draft"

type contextKey string

const stateKey contextKey = "wizardState"

// RequireDraft resolves the draft cookie into a State stored in the request
// context. Requests without a valid draft are handed to reject, which
// decides between a redirect (pages) and a 401 (API).
func RequireDraft(tokens *TokenService, reject http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state, err := stateFromRequest(r, tokens)
			if err != nil {
				reject(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), stateKey, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StateFromContext returns the state stored by RequireDraft, or a fresh
// collecting state when there is none.
func StateFromContext(ctx context.Context) State {
	if s, ok := ctx.Value(stateKey).(State); ok {
		return s
	}
	return New()
}

// SetDraftCookie issues a draft for profileID and attaches it to the
// response as an HttpOnly cookie.
func SetDraftCookie(w http.ResponseWriter, tokens *TokenService, profileID string, secure bool) error {
	token, err := tokens.Issue(profileID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     DraftCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokens.TTL() / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func stateFromRequest(r *http.Request, tokens *TokenService) (State, error) {
	cookie, err := r.Cookie(DraftCookie)
	if err != nil {
		return State{}, err
	}
	return tokens.Verify(cookie.Value)
}
