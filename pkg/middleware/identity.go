package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Identity is the acting identity extracted from a request. Role carries the
// raw claim value; domain packages validate it against their own role sets.
type Identity struct {
	ID   string
	Role string
}

type identityKey struct{}

// IdentityFrom returns the identity placed on the context by the Identity
// middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the given identity. Exposed for
// handler tests.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// Verifier validates a raw bearer token and returns the identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)
}

// OIDCVerifier validates bearer tokens against an OIDC issuer and maps the
// subject and role claims to an Identity.
type OIDCVerifier struct {
	verifier  *oidc.IDTokenVerifier
	roleClaim string
}

// NewOIDCVerifier discovers the issuer's keys and creates a token verifier.
func NewOIDCVerifier(ctx context.Context, issuer, clientID, roleClaim string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}

	return &OIDCVerifier{
		verifier:  provider.Verifier(&oidc.Config{ClientID: clientID}),
		roleClaim: roleClaim,
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, err
	}

	claims := map[string]any{}
	if err := token.Claims(&claims); err != nil {
		return Identity{}, err
	}

	identity := Identity{ID: token.Subject}
	if role, ok := claims[v.roleClaim].(string); ok {
		identity.Role = role
	}

	return identity, nil
}

// OIDCIdentity returns middleware that resolves the acting identity from a
// bearer token. Requests without a valid token are rejected.
func OIDCIdentity(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// HeaderIdentity returns middleware that trusts identity headers forwarded
// by an upstream gateway. Used when OIDC verification is disabled; identity
// itself is owned by an external provider either way.
func HeaderIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := Identity{
				ID:   r.Header.Get("X-Actor-Id"),
				Role: r.Header.Get("X-Actor-Role"),
			}

			if identity.ID == "" {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return "", false
	}

	return raw, true
}
