package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin vérifie que l'utilisateur a le rôle "admin" dans user_roles
func RequireAdmin(c *gin.Context) {
	isAdmin, exists := c.Get("is_admin")
	if !exists || isAdmin != true {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
		c.Abort()
		return
	}
	c.Next()
}
