package middleware

import (
	"log"
	"net/http"
	"strings"

	"friperie_back_end/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	anonCookieName   = "anon_id"
	anonCookieMaxAge = 86400 * 30 // 30 jours
)

// lookupAdmin est substituable dans les tests
var lookupAdmin = cache.IsAdmin

// Identity résout une identité stable avant toute opération panier : le
// user_id du Bearer token si la session est authentifiée, sinon un anon_id
// durable posé en cookie. Le handler voit toujours une identité non vide.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				if claims, err := parseToken(parts[1]); err == nil {
					if userID, ok := claims["user_id"].(string); ok && userID != "" {
						c.Set("user_id", userID)
						c.Set("is_anonymous", false)

						// Erreur de lecture du rôle ⇒ non admin, jamais de 500 :
						// le privilège échoue fermé, la session continue
						isAdmin, err := lookupAdmin(userID)
						if err != nil {
							log.Printf("⚠️ Lecture rôle impossible pour %s: %v", userID, err)
							isAdmin = false
						}
						c.Set("is_admin", isAdmin)
						c.Next()
						return
					}
				}
			}
			// Token présent mais invalide : on retombe sur l'identité anonyme
		}

		anonID, err := c.Cookie(anonCookieName)
		if err != nil || anonID == "" {
			anonID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(anonCookieName, anonID, anonCookieMaxAge, "/", "", false, true)
		}

		c.Set("user_id", anonID)
		c.Set("is_anonymous", true)
		c.Set("is_admin", false)
		c.Next()
	}
}
