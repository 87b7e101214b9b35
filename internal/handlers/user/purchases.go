package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"
)

// GetPurchases renvoie l'historique d'achats de l'utilisateur connecté
func GetPurchases(c *gin.Context) {
	userID := c.GetString("user_id")

	session, err := database.GetPurchasesSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Index secondaire sur user_id (volume faible par utilisateur)
	iter := session.Query(`SELECT purchase_id, user_id, item_id, quantity, unit_price, created_at
		FROM purchases WHERE user_id = ? ALLOW FILTERING`, userID).Iter()

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

	c.JSON(http.StatusOK, purchases)
}
