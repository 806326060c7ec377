package middleware

import (
	"net/http"
	"strings"

	"github.com/jkemboi/maziwa-backend/api/responses"
	pkgAuth "github.com/jkemboi/maziwa-backend/pkg/auth"
	"github.com/jkemboi/maziwa-backend/pkg/config"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
	"github.com/jkemboi/maziwa-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithRole(ctx, string(claims.Role))
			ctx = WithBusinessID(ctx, claims.BusinessID)
			if claims.FarmerID != nil {
				ctx = WithFarmerID(ctx, *claims.FarmerID)
			}

			if logg != nil {
				fields := map[string]any{
					"user_id":     claims.UserID.String(),
					"actor_role":  string(claims.Role),
					"business_id": claims.BusinessID,
				}
				if claims.FarmerID != nil {
					fields["farmer_id"] = *claims.FarmerID
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
