// Package echomw provides the Echo middlewares of the labeler HTTP server.
package echomw

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// DefaultBearerTokenEnv names the variable holding the API token unless
// the config points elsewhere.
const DefaultBearerTokenEnv = "MRZ_LABELER_BEARER_TOKEN"

const authRealm = "mrz-labeler"

/*
RequireBearerToken builds a middleware that admits requests carrying
"Authorization: Bearer <token>". The scheme is matched case-insensitively.
An empty token rejects every request.
*/
func RequireBearerToken(token string) echo.MiddlewareFunc {
	expected := []byte(strings.TrimSpace(token))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			received, ok := bearerCredential(c.Request().Header.Get(echo.HeaderAuthorization))
			if len(expected) == 0 || !ok || subtle.ConstantTimeCompare([]byte(received), expected) != 1 {
				return rejectBatchRequest(c)
			}
			return next(c)
		}
	}
}

// bearerCredential extracts the credential of a Bearer authorization header.
func bearerCredential(header string) (credential string, ok bool) {
	scheme, credential, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	credential = strings.TrimSpace(credential)
	return credential, credential != ""
}

func rejectBatchRequest(c echo.Context) error {
	LogRouteAccess(c, tl.Warning, "Rejected batch request without valid token", palette.Yellow)

	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="`+authRealm+`"`)
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": "unauthorized",
		"kind":  "UNAUTHORIZED",
	})
}
