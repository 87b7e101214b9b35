package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"friperie_back_end/internal/cache"
	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"
	"friperie_back_end/internal/utils"
)

// ================== AUTH LOCALE ==================

func CreateUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(input.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le mot de passe doit contenir au moins 8 caractères"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	// email déjà pris ?
	lookup, err := database.QueryUserIDByEmail(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}
	var existingID string
	if err := lookup.Scan(&existingID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	now := time.Now()
	user := models.User{
		ID:       uuid.NewString(),
		Name:     input.Name,
		Email:    email,
		Password: hashedPassword,
		Role:     models.RoleUser,
		Provider: "local",
	}

	insert, err := database.InsertUserQuery(user, now, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}
	if err := insert.Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	byEmail, err := database.InsertUserByEmailQuery(user.Email, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}
	if err := byEmail.Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	dropIdentityStores(c, user.ID)

	c.JSON(http.StatusCreated, gin.H{
		"token":  token,
		"userId": user.ID,
		"email":  user.Email,
		"name":   user.Name,
		"role":   user.Role,
	})
}

func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	lookup, err := database.QueryUserIDByEmail(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}
	var userID string
	if err := lookup.Scan(&userID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	profile, err := database.QueryUserByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}
	user := models.User{ID: userID}
	if err := profile.Scan(
		&user.Email, &user.Password, &user.Name, &user.Role,
		&user.Provider, &user.ProviderID, &user.AvatarURL); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	if user.Provider != "local" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ce compte utilise une connexion " + user.Provider})
		return
	}

	valid, err := utils.VerifyPassword(input.Password, user.Password)
	if err != nil || !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	role, _ := cache.GetRole(userID)

	// Le panier sera réhydraté sous la nouvelle identité ; le miroir du
	// visiteur anonyme qui vient de se connecter est libéré aussi
	dropIdentityStores(c, userID)

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"userId": user.ID,
		"email":  user.Email,
		"name":   user.Name,
		"role":   role,
	})
}

// dropIdentityStores libère le miroir panier de l'identité qui vient de
// changer : celui du compte, et celui du cookie anonyme s'il existe.
func dropIdentityStores(c *gin.Context, userID string) {
	Carts.Drop(userID)
	if anonID, err := c.Cookie("anon_id"); err == nil && anonID != "" {
		Carts.Drop(anonID)
	}
}

// Logout libère le contexte panier de l'identité courante.
// Le JWT est sans état : le client se contente de l'oublier.
func Logout(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID != "" {
		Carts.Drop(userID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}

// Me renvoie le profil de l'utilisateur connecté
func Me(c *gin.Context) {
	userID := c.GetString("user_id")

	profile, err := database.QueryUserByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	user := models.User{ID: userID}
	if err := profile.Scan(
		&user.Email, &user.Password, &user.Name, &user.Role,
		&user.Provider, &user.ProviderID, &user.AvatarURL); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	isAdmin, err := cache.IsAdmin(userID)
	if err != nil {
		isAdmin = false
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":     user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"provider":   user.Provider,
		"avatar_url": user.AvatarURL,
		"is_admin":   isAdmin,
	})
}
