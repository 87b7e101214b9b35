package user

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"friperie_back_end/internal/cart"
)

// Checkout valide le panier : décrément du stock, enregistrement des achats,
// puis génération du message de commande WhatsApp (lien + QR code).
func Checkout(c *gin.Context) {
	identity := c.GetString("user_id")

	var shipping cart.Shipping
	if err := c.ShouldBindJSON(&shipping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Coordonnées de livraison invalides"})
		return
	}

	whatsappNumber := os.Getenv("WHATSAPP_NUMBER")
	if whatsappNumber == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Numéro WhatsApp non configuré"})
		return
	}

	store, err := Carts.Store(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur chargement panier"})
		return
	}

	handoff, err := store.Checkout(c.Request.Context(), shipping, whatsappNumber)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": cart.ErrEmptyCart.Error()})
		case errors.Is(err, cart.ErrMissingShipping):
			c.JSON(http.StatusBadRequest, gin.H{"error": cart.ErrMissingShipping.Error()})
		case errors.Is(err, cart.ErrCheckoutFailed):
			c.JSON(http.StatusConflict, gin.H{"error": cart.ErrCheckoutFailed.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la commande"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  handoff.Message,
		"link":     handoff.Link,
		"qr_code":  handoff.QRCode,
		"subtotal": handoff.Subtotal,
	})
}
