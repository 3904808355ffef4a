package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/deppfellow/booking-backend/internal/errs"
	"github.com/deppfellow/booking-backend/internal/server"
	"github.com/labstack/echo/v4"
)

type AuthMiddleware struct {
	server *server.Server
}

// NewAuthMiddleware keys the Clerk SDK with the configured secret.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	clerk.SetKey(s.Config.Auth.SecretKey)
	return &AuthMiddleware{
		server: s,
	}
}

// RequireAuth verifies the Clerk session token in the Authorization
// header. The session subject becomes the request's user id, which
// commands record as their actor.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return echo.WrapMiddleware(
		clerkhttp.WithHeaderAuthorization(
			clerkhttp.AuthorizationFailureHandler(http.HandlerFunc(auth.unauthorized)),
		))(
		func(c echo.Context) error {
			start := time.Now()

			claims, ok := clerk.SessionClaimsFromContext(c.Request().Context())
			if !ok {
				GetLogger(c).Warn().
					Str("function", "RequireAuth").
					Dur("duration", time.Since(start)).
					Msg("could not get session claims from context")

				return errs.NewUnauthorizedError("Unauthorized", false)
			}

			c.Set(UserIDKey, claims.Subject)
			c.Set(UserRoleKey, claims.ActiveOrganizationRole)
			c.Set("permissions", claims.Claims.ActiveOrganizationPermissions)

			setLogger(c, GetLogger(c).With().Str("user_id", claims.Subject).Logger())

			GetLogger(c).Debug().
				Str("function", "RequireAuth").
				Dur("duration", time.Since(start)).
				Msg("user authenticated successfully")

			return next(c)
		})
}

// unauthorized writes the same error shape as GlobalErrorHandler. Clerk
// calls it outside Echo, so it cannot simply return the error.
func (auth *AuthMiddleware) unauthorized(w http.ResponseWriter, r *http.Request) {
	body := errs.NewUnauthorizedError("Unauthorized", false)

	w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w.WriteHeader(http.StatusUnauthorized)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		auth.server.Logger.Error().Err(err).
			Str("function", "RequireAuth").
			Msg("failed to write JSON response")
		return
	}

	auth.server.Logger.Warn().
		Str("function", "RequireAuth").
		Str("path", r.URL.Path).
		Str("request_id", w.Header().Get(RequestIDHeader)).
		Msg("rejected request without a valid session")
}
