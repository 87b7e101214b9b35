package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"friperie_back_end/internal/cart"
	"friperie_back_end/internal/models"
)

// Carts est le gestionnaire de paniers partagé, initialisé dans main.
var Carts *cart.Manager

// GetCart renvoie le panier de l'identité courante (connectée ou anonyme)
func GetCart(c *gin.Context) {
	identity := c.GetString("user_id")

	store, err := Carts.Store(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur chargement panier"})
		return
	}

	c.JSON(http.StatusOK, models.Cart{
		UserID:     identity,
		Items:      store.Entries(),
		Subtotal:   store.Subtotal(),
		TotalItems: store.TotalItems(),
	})
}

// RefreshCart resynchronise le panier local depuis la base (remplacement complet)
func RefreshCart(c *gin.Context) {
	identity := c.GetString("user_id")

	store, err := Carts.Store(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur chargement panier"})
		return
	}

	if err := store.FetchCart(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur synchronisation panier"})
		return
	}

	c.JSON(http.StatusOK, models.Cart{
		UserID:     identity,
		Items:      store.Entries(),
		Subtotal:   store.Subtotal(),
		TotalItems: store.TotalItems(),
	})
}

// AddToCart ajoute un exemplaire d'un article au panier
func AddToCart(c *gin.Context) {
	identity := c.GetString("user_id")

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

	store, err := Carts.Store(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur chargement panier"})
		return
	}

	if err := store.AddToCart(c.Request.Context(), itemID); err != nil {
		cartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Article ajouté au panier",
		"items":       store.Entries(),
		"total_items": store.TotalItems(),
	})
}

// UpdateCartQuantity fixe la quantité d'une ligne du panier
func UpdateCartQuantity(c *gin.Context) {
	identity := c.GetString("user_id")

	itemID, err := gocql.ParseUUID(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID article invalide"})
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	store, err := Carts.Store(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur chargement panier"})
		return
	}

	if err := store.UpdateQuantity(c.Request.Context(), itemID, req.Quantity); err != nil {
		cartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Quantité mise à jour",
		"items":       store.Entries(),
		"total_items": store.TotalItems(),
	})
}

// RemoveFromCart retire une ligne du panier (idempotent)
func RemoveFromCart(c *gin.Context) {
	identity := c.GetString("user_id")

	itemID, err := gocql.ParseUUID(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID article invalide"})
		return
	}

	store, err := Carts.Store(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur chargement panier"})
		return
	}

	if err := store.Remove(c.Request.Context(), itemID); err != nil {
		cartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Article retiré du panier",
		"items":       store.Entries(),
		"total_items": store.TotalItems(),
	})
}

// ClearCart vide entièrement le panier
func ClearCart(c *gin.Context) {
	identity := c.GetString("user_id")

	store, err := Carts.Store(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur chargement panier"})
		return
	}

	if err := store.Clear(c.Request.Context()); err != nil {
		cartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé"})
}

// cartError traduit les erreurs métier du panier en réponses HTTP
func cartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"error": cart.ErrOutOfStock.Error()})
	case errors.Is(err, cart.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": cart.ErrInsufficientStock.Error()})
	case errors.Is(err, cart.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": cart.ErrInvalidQuantity.Error()})
	case errors.Is(err, cart.ErrRemoteWrite):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
	case errors.Is(err, gocql.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur panier"})
	}
}
