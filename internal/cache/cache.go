package cache

import (
	"context"
	"encoding/json"
	"time"

	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"

	"github.com/gocql/gocql"
)

const (
	ItemCacheTTL       = 10 * time.Minute
	CategoriesCacheTTL = time.Hour
)

// GetItemFromCache récupère un article depuis Redis ou ScyllaDB
func GetItemFromCache(itemID gocql.UUID) (*models.Item, error) {
	ctx := context.Background()
	key := "item:" + itemID.String()

	// 1. Essayer le cache Redis
	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var item models.Item
		if json.Unmarshal([]byte(data), &item) == nil {
			return &item, nil
		}
	}

	// 2. Récupérer de ScyllaDB
	session, err := database.GetItemsSession()
	if err != nil {
		return nil, err
	}

	var item models.Item
	err = session.Query(`SELECT item_id, title, description, price, stock, size, condition, category_id, image_urls, seller_id, is_published, created_at, updated_at
		FROM items WHERE item_id = ?`, itemID).Scan(
		&item.ID, &item.Title, &item.Description, &item.Price, &item.Stock,
		&item.Size, &item.Condition, &item.CategoryID, &item.ImageURLs,
		&item.SellerID, &item.IsPublished, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	// 3. Mettre en cache
	jsonData, _ := json.Marshal(item)
	database.Redis.Set(ctx, key, jsonData, ItemCacheTTL)

	return &item, nil
}

// InvalidateItemCache invalide le cache d'un article
func InvalidateItemCache(itemID string) {
	ctx := context.Background()
	database.Redis.Del(ctx, "item:"+itemID)
}

// InvalidateCategoriesCache invalide la liste des catégories
func InvalidateCategoriesCache() {
	ctx := context.Background()
	database.Redis.Del(ctx, "categories:all")
}
