package user

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"friperie_back_end/internal/cache"
	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"
)

const favoritesCacheTTL = 10 * time.Minute

// GetFavorites récupère les favoris de l'utilisateur connecté
func GetFavorites(c *gin.Context) {
	userID := c.GetString("user_id")

	// Redis d'abord
	ctx := context.Background()
	cacheKey := "favorites:" + userID

	cached, err := database.Redis.Get(ctx, cacheKey).Result()
	if err == nil {
		var favorites models.Favorites
		if json.Unmarshal([]byte(cached), &favorites) == nil {
			c.JSON(http.StatusOK, favorites)
			return
		}
	}

	// Sinon depuis ScyllaDB
	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query("SELECT item_id FROM favorites WHERE user_id = ?", userID).Iter()

	var itemIDs []gocql.UUID
	var itemID gocql.UUID

	for iter.Scan(&itemID) {
		itemIDs = append(itemIDs, itemID)
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture favoris"})
		return
	}

	// Détails des articles (les articles supprimés sont ignorés)
	var items []models.Item
	for _, id := range itemIDs {
		item, err := cache.GetItemFromCache(id)
		if err == nil {
			items = append(items, *item)
		}
	}

	favorites := models.Favorites{
		UserID: userID,
		Items:  items,
	}

	if data, err := json.Marshal(favorites); err == nil {
		database.Redis.Set(ctx, cacheKey, data, favoritesCacheTTL)
	}

	c.JSON(http.StatusOK, favorites)
}

// AddFavorite ajoute un article aux favoris
func AddFavorite(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		ItemID string `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	itemID, err := gocql.ParseUUID(req.ItemID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID article invalide"})
		return
	}

	// Vérifie que l'article existe
	if _, err := cache.GetItemFromCache(itemID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	fav := models.FavoriteItem{
		UserID:  userID,
		ItemID:  itemID,
		AddedAt: time.Now(),
	}
	if err := session.Query(
		"INSERT INTO favorites (user_id, item_id, added_at) VALUES (?, ?, ?)",
		fav.UserID, fav.ItemID, fav.AddedAt,
	).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur ajout favori"})
		return
	}

	database.Redis.Del(context.Background(), "favorites:"+userID)

	c.JSON(http.StatusOK, gin.H{"message": "Article ajouté aux favoris"})
}

// RemoveFavorite retire un article des favoris
func RemoveFavorite(c *gin.Context) {
	userID := c.GetString("user_id")

	itemID, err := gocql.ParseUUID(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID article invalide"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query(
		"DELETE FROM favorites WHERE user_id = ? AND item_id = ?",
		userID, itemID,
	).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression favori"})
		return
	}

	database.Redis.Del(context.Background(), "favorites:"+userID)

	c.JSON(http.StatusOK, gin.H{"message": "Article retiré des favoris"})
}
