package admin

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"friperie_back_end/internal/cache"
	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"
)

// GetUserRoles liste les rôles explicitement attribués
func GetUserRoles(c *gin.Context) {
	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query("SELECT user_id, role, granted_by, granted_at FROM user_roles").Iter()

	var roles []models.UserRole
	var role models.UserRole

	for iter.Scan(&role.UserID, &role.Role, &role.GrantedBy, &role.GrantedAt) {
		roles = append(roles, role)
		role = models.UserRole{}
	}

	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur récupération rôles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roles": roles,
		"total": len(roles),
	})
}

// GrantAdmin attribue le rôle admin à un utilisateur
func GrantAdmin(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Vérifie que l'utilisateur existe
	var email string
	if err := session.Query("SELECT email FROM users WHERE user_id = ?", req.UserID).Scan(&email); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	if err := session.Query("INSERT INTO user_roles (user_id, role, granted_by, granted_at) VALUES (?, ?, ?, ?)",
		req.UserID, models.RoleAdmin, c.GetString("user_id"), time.Now()).Exec(); err != nil {
		log.Printf("❌ Erreur attribution rôle admin: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur attribution du rôle"})
		return
	}

	cache.InvalidateRoleCache(req.UserID)

	log.Printf("✅ Rôle admin attribué à %s par %s", req.UserID, c.GetString("user_id"))
	c.JSON(http.StatusOK, gin.H{"message": "Rôle admin attribué"})
}

// RevokeAdmin retire le rôle admin d'un utilisateur
func RevokeAdmin(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID utilisateur manquant"})
		return
	}

	// Un admin ne peut pas se retirer lui-même le rôle
	if userID == c.GetString("user_id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Impossible de retirer son propre rôle admin"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query("DELETE FROM user_roles WHERE user_id = ?", userID).Exec(); err != nil {
		log.Printf("❌ Erreur révocation rôle admin: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur révocation du rôle"})
		return
	}

	cache.InvalidateRoleCache(userID)

	log.Printf("✅ Rôle admin retiré à %s par %s", userID, c.GetString("user_id"))
	c.JSON(http.StatusOK, gin.H{"message": "Rôle admin retiré"})
}
