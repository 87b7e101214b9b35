package item

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"friperie_back_end/internal/cache"
	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"
	"friperie_back_end/internal/services"
)

const publishedCacheKey = "items:published"

// GetAllItems liste les articles publiés, avec filtres et tri optionnels :
// ?q=          recherche dans le titre
// ?category_id= filtre par catégorie
// ?size=       filtre par taille
// ?condition=  filtre par état
// ?sort=       price_asc | price_desc | newest
// ?limit=      nombre maximum de résultats
func GetAllItems(c *gin.Context) {
	items, err := publishedItems()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture articles"})
		return
	}

	// Filtres en mémoire (catalogue de petite taille)
	if q := c.Query("q"); q != "" {
		filtered := items[:0:0]
		for _, it := range items {
			if containsIgnoreCase(it.Title, q) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	if categoryID := c.Query("category_id"); categoryID != "" {
		catUUID, err := gocql.ParseUUID(categoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID de catégorie invalide"})
			return
		}
		filtered := items[:0:0]
		for _, it := range items {
			if it.CategoryID == catUUID {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	if size := c.Query("size"); size != "" {
		filtered := items[:0:0]
		for _, it := range items {
			if strings.EqualFold(it.Size, size) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	if condition := c.Query("condition"); condition != "" {
		filtered := items[:0:0]
		for _, it := range items {
			if strings.EqualFold(it.Condition, condition) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	switch c.Query("sort") {
	case "price_asc":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price < items[j].Price })
	case "price_desc":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price > items[j].Price })
	default:
		// Par défaut : les plus récents d'abord
		sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre 'limit' invalide"})
			return
		}
		if limit < len(items) {
			items = items[:limit]
		}
	}

	if items == nil {
		items = []models.Item{}
	}
	c.JSON(http.StatusOK, items)
}

// publishedItems charge les articles publiés, via Redis si possible
func publishedItems() ([]models.Item, error) {
	ctx := context.Background()

	if val, err := database.RedisClient.Get(ctx, publishedCacheKey).Result(); err == nil && val != "" {
		var cached []models.Item
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return cached, nil
		}
	}

	session, err := database.GetItemsSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT item_id, title, description, price, stock, size, condition, category_id, image_urls, seller_id, is_published, created_at, updated_at
		FROM items`).Iter()

	var items []models.Item
	var it models.Item

	for iter.Scan(&it.ID, &it.Title, &it.Description, &it.Price, &it.Stock,
		&it.Size, &it.Condition, &it.CategoryID, &it.ImageURLs,
		&it.SellerID, &it.IsPublished, &it.CreatedAt, &it.UpdatedAt) {
		if it.IsPublished {
			items = append(items, it)
		}
		it = models.Item{}
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		database.RedisClient.Set(ctx, publishedCacheKey, data, 5*time.Minute)
	}

	return items, nil
}

// GetItem renvoie le détail d'un article
func GetItem(c *gin.Context) {
	itemID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID article invalide"})
		return
	}

	item, err := cache.GetItemFromCache(itemID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
		return
	}

	// Un article non publié n'est visible que par son vendeur ou un admin
	if !item.IsPublished && item.SellerID != c.GetString("user_id") && !c.GetBool("is_admin") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// CreateItem crée un article (non publié) pour le vendeur connecté
func CreateItem(c *gin.Context) {
	var it models.Item
	if err := c.ShouldBindJSON(&it); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if it.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le champ 'title' est obligatoire"})
		return
	}
	if it.Price < 0 || it.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prix et stock doivent être positifs"})
		return
	}
	if it.CategoryID == (gocql.UUID{}) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le champ 'category_id' est obligatoire"})
		return
	}

	session, err := database.GetItemsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Vérifie la catégorie
	var categoryName string
	if err := session.Query("SELECT name FROM categories WHERE category_id = ?", it.CategoryID).Scan(&categoryName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Catégorie introuvable"})
		return
	}

	it.ID = gocql.TimeUUID()
	it.SellerID = c.GetString("user_id")
	it.IsPublished = false
	now := time.Now()
	it.CreatedAt = now
	it.UpdatedAt = now

	if err := session.Query(`INSERT INTO items (item_id, title, description, price, stock, size, condition, category_id, image_urls, seller_id, is_published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Title, it.Description, it.Price, it.Stock, it.Size, it.Condition,
		it.CategoryID, it.ImageURLs, it.SellerID, it.IsPublished, it.CreatedAt, it.UpdatedAt).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création article: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, it)
}

// UpdateItem modifie un article (vendeur ou admin)
func UpdateItem(c *gin.Context) {
	itemID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID article invalide"})
		return
	}

	existing, err := cache.GetItemFromCache(itemID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
		return
	}

	if existing.SellerID != c.GetString("user_id") && !c.GetBool("is_admin") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès refusé"})
		return
	}

	var input struct {
		Title       *string   `json:"title"`
		Description *string   `json:"description"`
		Price       *float64  `json:"price"`
		Stock       *int      `json:"stock"`
		Size        *string   `json:"size"`
		Condition   *string   `json:"condition"`
		ImageURLs   *[]string `json:"image_urls"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	it := *existing
	if input.Title != nil {
		it.Title = *input.Title
	}
	if input.Description != nil {
		it.Description = *input.Description
	}
	if input.Price != nil {
		it.Price = *input.Price
	}
	if input.Stock != nil {
		it.Stock = *input.Stock
	}
	if input.Size != nil {
		it.Size = *input.Size
	}
	if input.Condition != nil {
		it.Condition = *input.Condition
	}
	if input.ImageURLs != nil {
		it.ImageURLs = *input.ImageURLs
	}

	if it.Price < 0 || it.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prix et stock doivent être positifs"})
		return
	}

	session, err := database.GetItemsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	it.UpdatedAt = time.Now()
	if err := session.Query(`UPDATE items SET title = ?, description = ?, price = ?, stock = ?, size = ?, condition = ?, image_urls = ?, updated_at = ?
		WHERE item_id = ?`,
		it.Title, it.Description, it.Price, it.Stock, it.Size, it.Condition,
		it.ImageURLs, it.UpdatedAt, it.ID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur modification article"})
		return
	}

	cache.InvalidateItemCache(it.ID.String())
	database.RedisClient.Del(context.Background(), publishedCacheKey)
	if it.IsPublished {
		go services.IndexItem(it)
	}

	c.JSON(http.StatusOK, it)
}

// DeleteItem supprime un article (vendeur ou admin)
func DeleteItem(c *gin.Context) {
	itemID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID article invalide"})
		return
	}

	existing, err := cache.GetItemFromCache(itemID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
		return
	}

	if existing.SellerID != c.GetString("user_id") && !c.GetBool("is_admin") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès refusé"})
		return
	}

	session, err := database.GetItemsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query("DELETE FROM items WHERE item_id = ?", itemID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression article"})
		return
	}

	// Supprime les images associées (le nom d'objet est le dernier segment de l'URL)
	for _, imgURL := range existing.ImageURLs {
		objectName := imgURL
		if idx := strings.LastIndex(imgURL, "/"); idx >= 0 {
			objectName = imgURL[idx+1:]
		}
		if err := services.DeleteItemImage(objectName); err != nil {
			// L'article est déjà supprimé, on continue
			continue
		}
	}

	cache.InvalidateItemCache(itemID.String())
	database.RedisClient.Del(context.Background(), publishedCacheKey)
	go services.RemoveItemFromIndex(itemID.String())

	c.JSON(http.StatusOK, gin.H{"message": "Article supprimé"})
}

// PublishItem publie ou dépublie un article (admin)
func PublishItem(c *gin.Context) {
	itemID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID article invalide"})
		return
	}

	var input struct {
		IsPublished bool `json:"is_published"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	existing, err := cache.GetItemFromCache(itemID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
		return
	}

	session, err := database.GetItemsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query("UPDATE items SET is_published = ?, updated_at = ? WHERE item_id = ?",
		input.IsPublished, time.Now(), itemID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur publication article"})
		return
	}

	cache.InvalidateItemCache(itemID.String())
	database.RedisClient.Del(context.Background(), publishedCacheKey)

	it := *existing
	it.IsPublished = input.IsPublished
	if input.IsPublished {
		go services.IndexItem(it)
	} else {
		go services.RemoveItemFromIndex(itemID.String())
	}

	c.JSON(http.StatusOK, gin.H{"message": "Statut de publication mis à jour", "is_published": input.IsPublished})
}

// Helper pour recherche insensible à la casse
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
