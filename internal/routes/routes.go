package routes

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"friperie_back_end/internal/handlers/admin"
	"friperie_back_end/internal/handlers/item"
	"friperie_back_end/internal/handlers/user"
	"friperie_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:5173"
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontend},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Toutes les routes /api portent une identité : utilisateur connecté
	// (JWT) ou visiteur anonyme (cookie anon_id)
	api := r.Group("/api")
	api.Use(middleware.Identity())

	// ===== Auth =====
	auth := api.Group("/auth")
	{
		auth.POST("/register", middleware.RegisterRateLimit(), user.CreateUser)
		auth.POST("/login", middleware.LoginRateLimit(), user.Login)
		auth.POST("/logout", middleware.AuthRequired(), user.Logout)
		auth.GET("/me", middleware.AuthRequired(), user.Me)
		auth.POST("/change-password", middleware.AuthRequired(), user.ChangePassword)
		auth.POST("/forgot-password", middleware.ForgotPasswordRateLimit(), user.ForgotPassword)
		auth.POST("/reset-password", user.ResetPassword)

		// OAuth (Google, Facebook)
		auth.GET("/oauth/:provider", user.BeginAuth)
		auth.GET("/oauth/:provider/callback", user.CallbackAuth)
	}

	// ===== Catalogue (public) =====
	api.GET("/items", item.GetAllItems)
	api.GET("/items/:id", item.GetItem)
	api.GET("/categories", item.GetAllCategories)
	api.GET("/search", middleware.SearchRateLimit(), item.SearchItems)

	// ===== Vente (connecté) =====
	selling := api.Group("")
	selling.Use(middleware.AuthRequired())
	{
		selling.POST("/items", item.CreateItem)
		selling.PUT("/items/:id", item.UpdateItem)
		selling.DELETE("/items/:id", item.DeleteItem)
		selling.POST("/upload", item.UploadImage)
	}

	// ===== Panier (connecté ou anonyme) =====
	cart := api.Group("/cart")
	cart.Use(middleware.CartRateLimit())
	{
		cart.GET("", user.GetCart)
		cart.POST("", user.AddToCart)
		cart.POST("/refresh", user.RefreshCart)
		cart.PUT("/:itemId", user.UpdateCartQuantity)
		cart.DELETE("/:itemId", user.RemoveFromCart)
		cart.DELETE("", user.ClearCart)
	}

	api.POST("/checkout", middleware.CartRateLimit(), user.Checkout)

	// ===== Favoris (connecté) =====
	favorites := api.Group("/favorites")
	favorites.Use(middleware.AuthRequired())
	{
		favorites.GET("", user.GetFavorites)
		favorites.POST("", user.AddFavorite)
		favorites.DELETE("/:itemId", user.RemoveFavorite)
	}

	api.GET("/purchases", middleware.AuthRequired(), user.GetPurchases)

	// ===== Back-office (admin) =====
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		adminGroup.GET("/items", admin.GetAllItems)
		adminGroup.PUT("/items/:id/publish", item.PublishItem)
		adminGroup.GET("/purchases", admin.GetRecentPurchases)

		adminGroup.POST("/categories", item.CreateCategory)
		adminGroup.PUT("/categories/:id", item.UpdateCategory)
		adminGroup.DELETE("/categories/:id", item.DeleteCategory)

		adminGroup.GET("/roles", admin.GetUserRoles)
		adminGroup.POST("/roles/grant", admin.GrantAdmin)
		adminGroup.DELETE("/roles/:userId", admin.RevokeAdmin)
	}
}
