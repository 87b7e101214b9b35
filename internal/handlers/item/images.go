package item

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"friperie_back_end/internal/services"
)

// Limite de taille d'une image d'article (5 Mo)
const maxImageSize = 5 << 20

// UploadImage reçoit une image multipart et renvoie son URL publique MinIO.
// L'URL est ensuite associée à l'article via UpdateItem.
func UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier 'image' manquant"})
		return
	}

	if file.Size > maxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image trop volumineuse (5 Mo maximum)"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Format d'image non supporté (jpeg, png, webp)"})
		return
	}

	url, err := services.UploadItemImage(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
