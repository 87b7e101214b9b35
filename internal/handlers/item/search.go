package item

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"friperie_back_end/internal/models"
	"friperie_back_end/internal/services"
)

// SearchItems recherche dans le catalogue publié.
// Elasticsearch d'abord, repli sur un filtre en mémoire si l'index est vide.
func SearchItems(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre 'q' manquant"})
		return
	}

	results, err := services.SearchItems(query)
	if err == nil && len(results) > 0 {
		c.JSON(http.StatusOK, results)
		return
	}

	// Repli ScyllaDB : filtre titre/description en mémoire
	items, err := publishedItems()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche"})
		return
	}

	matches := []models.Item{}
	for _, it := range items {
		if containsIgnoreCase(it.Title, query) || containsIgnoreCase(it.Description, query) {
			matches = append(matches, it)
		}
	}

	c.JSON(http.StatusOK, matches)
}
