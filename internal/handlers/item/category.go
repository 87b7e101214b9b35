package item

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"friperie_back_end/internal/cache"
	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"
)

const categoriesCacheKey = "categories:all"

// GetAllCategories liste les catégories (public, mis en cache)
func GetAllCategories(c *gin.Context) {
	ctx := context.Background()

	if val, err := database.RedisClient.Get(ctx, categoriesCacheKey).Result(); err == nil && val != "" {
		var cached []models.Category
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	session, err := database.GetItemsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query("SELECT category_id, name, slug, description, created_at, updated_at FROM categories").Iter()

	var categories []models.Category
	var cat models.Category

	for iter.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt) {
		categories = append(categories, cat)
		cat = models.Category{}
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture catégories"})
		return
	}

	if data, err := json.Marshal(categories); err == nil {
		database.RedisClient.Set(ctx, categoriesCacheKey, data, time.Hour)
	}

	c.JSON(http.StatusOK, categories)
}

// CreateCategory crée une catégorie (admin)
func CreateCategory(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := database.GetItemsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	now := time.Now()
	cat := models.Category{
		ID:          gocql.TimeUUID(),
		Name:        input.Name,
		Slug:        slugify(input.Name),
		Description: input.Description,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}

	if err := session.Query(`INSERT INTO categories (category_id, name, slug, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cat.ID, cat.Name, cat.Slug, cat.Description, cat.CreatedAt, cat.UpdatedAt).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création catégorie"})
		return
	}

	cache.InvalidateCategoriesCache()

	c.JSON(http.StatusCreated, cat)
}

// UpdateCategory modifie une catégorie (admin)
func UpdateCategory(c *gin.Context) {
	catID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de catégorie invalide"})
		return
	}

	var input struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := database.GetItemsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var existing string
	if err := session.Query("SELECT name FROM categories WHERE category_id = ?", catID).Scan(&existing); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Catégorie introuvable"})
		return
	}

	if err := session.Query("UPDATE categories SET name = ?, slug = ?, description = ?, updated_at = ? WHERE category_id = ?",
		input.Name, slugify(input.Name), input.Description, time.Now(), catID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur modification catégorie"})
		return
	}

	cache.InvalidateCategoriesCache()

	c.JSON(http.StatusOK, gin.H{"message": "Catégorie modifiée"})
}

// DeleteCategory supprime une catégorie vide (admin)
func DeleteCategory(c *gin.Context) {
	catID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de catégorie invalide"})
		return
	}

	session, err := database.GetItemsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Refuse la suppression si des articles y sont encore rattachés
	var count int
	if err := session.Query("SELECT COUNT(*) FROM items WHERE category_id = ? ALLOW FILTERING", catID).Scan(&count); err == nil && count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "La catégorie contient encore des articles"})
		return
	}

	if err := session.Query("DELETE FROM categories WHERE category_id = ?", catID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression catégorie"})
		return
	}

	cache.InvalidateCategoriesCache()

	c.JSON(http.StatusOK, gin.H{"message": "Catégorie supprimée"})
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
