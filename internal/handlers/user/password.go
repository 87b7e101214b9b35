package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"friperie_back_end/internal/database"
	"friperie_back_end/internal/utils"
)

const resetTokenTTL = 1 * time.Hour

// ================== CHANGE PASSWORD (avec ancien mot de passe) ==================

// POST /api/auth/change-password
func ChangePassword(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(input.NewPassword) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le nouveau mot de passe doit contenir au moins 8 caractères"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		log.Printf("❌ Erreur session ScyllaDB: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var password, provider string
	if err := session.Query("SELECT password, provider FROM users WHERE user_id = ?", userID).
		Scan(&password, &provider); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	if provider != "local" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Les comptes OAuth ne peuvent pas changer de mot de passe ici"})
		return
	}

	valid, err := utils.VerifyPassword(input.OldPassword, password)
	if err != nil || !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Ancien mot de passe incorrect"})
		return
	}

	hashedPassword, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du changement de mot de passe"})
		return
	}

	if err := session.Query("UPDATE users SET password = ?, updated_at = ? WHERE user_id = ?",
		hashedPassword, time.Now(), userID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la mise à jour"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mot de passe changé avec succès"})
}

// ================== FORGOT PASSWORD ==================

// POST /api/auth/forgot-password
func ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Réponse identique que l'email existe ou non
	neutral := gin.H{"message": "Si cet email existe, un lien de réinitialisation a été envoyé"}

	session, err := database.GetUsersSession()
	if err != nil {
		log.Printf("❌ Erreur session ScyllaDB: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	lookup, err := database.QueryUserIDByEmail(input.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}
	var userID string
	if err := lookup.Scan(&userID); err != nil {
		c.JSON(http.StatusOK, neutral)
		return
	}

	var provider string
	if err := session.Query("SELECT provider FROM users WHERE user_id = ?", userID).Scan(&provider); err != nil || provider != "local" {
		c.JSON(http.StatusOK, neutral)
		return
	}

	resetToken := generateResetToken()

	ctx := context.Background()
	if err := database.RedisClient.Set(ctx, "reset_token:"+resetToken, userID, resetTokenTTL).Err(); err != nil {
		log.Printf("❌ Erreur sauvegarde token reset: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la génération du lien"})
		return
	}

	baseURL := os.Getenv("FRONTEND_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5173"
	}
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", baseURL, resetToken)

	go func() {
		if err := utils.SendPasswordResetEmail(input.Email, resetLink); err != nil {
			log.Printf("❌ Erreur envoi email reset: %v", err)
		}
	}()

	c.JSON(http.StatusOK, neutral)
}

// POST /api/auth/reset-password
func ResetPassword(c *gin.Context) {
	var input struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(input.NewPassword) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le mot de passe doit contenir au moins 8 caractères"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID, err := database.RedisClient.Get(ctx, "reset_token:"+input.Token).Result()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token invalide ou expiré"})
		return
	}

	hashedPassword, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la réinitialisation"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		log.Printf("❌ Erreur session ScyllaDB: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query("UPDATE users SET password = ?, updated_at = ? WHERE user_id = ?",
		hashedPassword, time.Now(), userID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la mise à jour"})
		return
	}

	// Token à usage unique
	database.RedisClient.Del(ctx, "reset_token:"+input.Token)

	c.JSON(http.StatusOK, gin.H{"message": "Mot de passe réinitialisé avec succès"})
}

func generateResetToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
