package user

import (
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"

	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"
	"friperie_back_end/internal/utils"
)

// ================== AUTH SOCIALE ==================

func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := findOrCreateOAuthUser(provider, gothUser.UserID, gothUser.Email, gothUser.Name, gothUser.AvatarURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:5173"
	}

	c.Redirect(http.StatusTemporaryRedirect, frontend+"/auth/callback?token="+url.QueryEscape(token))
}

// findOrCreateOAuthUser rattache le compte social à un utilisateur existant
// (même email) ou en crée un nouveau.
func findOrCreateOAuthUser(provider, providerID, email, name, avatarURL string) (models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return models.User{}, err
	}

	// 1. Compte existant avec cet email ?
	lookup, err := database.QueryUserIDByEmail(email)
	if err != nil {
		return models.User{}, err
	}
	var userID string
	if err := lookup.Scan(&userID); err == nil {
		profile, err := database.QueryUserByID(userID)
		if err != nil {
			return models.User{}, err
		}
		user := models.User{ID: userID}
		if err := profile.Scan(
			&user.Email, &user.Password, &user.Name, &user.Role,
			&user.Provider, &user.ProviderID, &user.AvatarURL); err != nil {
			return models.User{}, err
		}

		// Rattache le provider au compte existant
		if user.Provider != provider || user.ProviderID != providerID {
			if err := session.Query("UPDATE users SET provider = ?, provider_id = ?, avatar_url = ?, updated_at = ? WHERE user_id = ?",
				provider, providerID, avatarURL, time.Now(), userID).Exec(); err != nil {
				log.Printf("⚠️ Erreur mise à jour provider %s pour %s: %v", provider, email, err)
			} else {
				log.Printf("🔄 Compte existant rattaché au provider %s : %s", provider, email)
			}
		}
		return user, nil
	}

	// 2. Création d'un nouvel utilisateur OAuth
	now := time.Now()
	user := models.User{
		ID:         uuid.NewString(),
		Email:      email,
		Name:       name,
		Role:       models.RoleUser,
		Provider:   provider,
		ProviderID: providerID,
		AvatarURL:  avatarURL,
	}

	insert, err := database.InsertUserQuery(user, now, now)
	if err != nil {
		return models.User{}, err
	}
	if err := insert.Exec(); err != nil {
		return models.User{}, err
	}
	byEmail, err := database.InsertUserByEmailQuery(user.Email, user.ID)
	if err != nil {
		return models.User{}, err
	}
	if err := byEmail.Exec(); err != nil {
		return models.User{}, err
	}

	log.Printf("🆕 Utilisateur OAuth créé (%s) : %s", provider, email)
	return user, nil
}
