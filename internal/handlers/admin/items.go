package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"
)

// GetAllItems liste tous les articles, publiés ou non (back-office)
func GetAllItems(c *gin.Context) {
	session, err := database.GetItemsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT item_id, title, description, price, stock, size, condition, category_id, image_urls, seller_id, is_published, created_at, updated_at
		FROM items`).Iter()

	var items []models.Item
	var it models.Item

	for iter.Scan(&it.ID, &it.Title, &it.Description, &it.Price, &it.Stock,
		&it.Size, &it.Condition, &it.CategoryID, &it.ImageURLs,
		&it.SellerID, &it.IsPublished, &it.CreatedAt, &it.UpdatedAt) {
		items = append(items, it)
		it = models.Item{}
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture articles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// GetRecentPurchases liste les achats des 30 derniers jours (back-office)
func GetRecentPurchases(c *gin.Context) {
	session, err := database.GetPurchasesSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)

	iter := session.Query(`SELECT purchase_id, user_id, item_id, quantity, unit_price, created_at
		FROM purchases WHERE created_at >= ? ALLOW FILTERING`, thirtyDaysAgo).Iter()

	var purchases []models.Purchase
	var p models.Purchase

	for iter.Scan(&p.ID, &p.UserID, &p.ItemID, &p.Quantity, &p.UnitPrice, &p.CreatedAt) {
		purchases = append(purchases, p)
		p = models.Purchase{}
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture achats"})
		return
	}

	var total float64
	for _, purchase := range purchases {
		total += purchase.UnitPrice * float64(purchase.Quantity)
	}

	c.JSON(http.StatusOK, gin.H{
		"purchases": purchases,
		"total":     len(purchases),
		"revenue":   total,
	})
}
