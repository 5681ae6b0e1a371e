package server

import (
	"galleria/access"
	"galleria/classify"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie is the session token cookie the frontend sets.
	SessionCookie = "session_token"

	viewerContextKey = "viewer_context"
)

// ViewerContextMiddleware builds the typed viewer context once per
// request from the session cookie. An absent or invalid session yields a
// guest viewer; the request itself is never rejected here.
func ViewerContextMiddleware(jwtSvc *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := access.Guest()

		if jwtSvc != nil {
			if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
				if claims, err := jwtSvc.Verify(token); err == nil {
					roles := make([]classify.Role, 0, len(claims.Roles))
					for _, r := range claims.Roles {
						roles = append(roles, classify.ParseRole(r))
					}
					viewer = access.NewViewer(roles...)
				}
			}
		}

		c.Set(viewerContextKey, viewer)
		c.Next()
	}
}

func GetViewer(c *gin.Context) access.Viewer {
	if v, ok := c.Get(viewerContextKey); ok {
		if viewer, ok := v.(access.Viewer); ok {
			return viewer
		}
	}
	return access.Guest()
}
