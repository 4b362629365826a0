// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/vision-studio/storefront-backend/internal/config"
	"github.com/vision-studio/storefront-backend/internal/interfaces/http/handlers"
	"github.com/vision-studio/storefront-backend/internal/interfaces/http/middleware"
)

// Handlers bundles all route handlers for registration
type Handlers struct {
	Auth     *handlers.AuthHandler
	Catalog  *handlers.CatalogHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Order    *handlers.OrderHandler
	Admin    *handlers.AdminHandler
}

// SetupRoutes registers all API routes
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, cfg *config.Config) {
	// Authentication routes
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/profile", h.Auth.GetProfile)
			protected.PUT("/profile", h.Auth.UpdateProfile)
			protected.PUT("/password", h.Auth.ChangePassword)
		}
	}

	// Questionnaire routes
	rg.POST("/questionnaire", h.Auth.CompleteQuestionnaire)
	rg.GET("/questionnaire/status", h.Auth.QuestionnaireStatus)

	// Catalog routes (public)
	products := rg.Group("/products")
	{
		products.GET("", h.Catalog.GetProducts)
		products.GET("/categories", h.Catalog.GetCategories)
		products.GET("/:id", h.Catalog.GetProduct)
	}
	packages := rg.Group("/packages")
	{
		packages.GET("", h.Catalog.GetPackages)
		packages.GET("/:id", h.Catalog.GetPackage)
	}

	// Cart routes: guests and signed-in users alike; identity is optional
	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("/items", h.Cart.AddItem)
		cart.DELETE("/items", h.Cart.RemoveItem)
		cart.POST("/bundles", h.Cart.AddBundle)
		cart.DELETE("", h.Cart.ClearCart)
	}

	// Checkout routes
	checkout := rg.Group("/checkout")
	checkout.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		checkout.POST("", h.Checkout.Start)
		checkout.GET("", h.Checkout.Get)
		checkout.GET("/options", h.Checkout.Options)
		checkout.PUT("/delivery", h.Checkout.SetDelivery)
		checkout.PUT("/payment-method", h.Checkout.SetPaymentMethod)
		checkout.PUT("/payment-details", h.Checkout.SetPaymentDetails)
		checkout.POST("/next", h.Checkout.Next)
		checkout.POST("/back", h.Checkout.Back)
		checkout.POST("/submit", h.Checkout.Submit)
		checkout.DELETE("", h.Checkout.Close)
	}

	// Order routes (authenticated)
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", h.Order.GetOrders)
		orders.GET("/:number", h.Order.GetOrder)
	}

	// Admin routes
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	{
		admin.GET("/dashboard", h.Admin.GetDashboard)
		admin.GET("/dashboard/top-products", h.Admin.GetTopProducts)
		admin.GET("/dashboard/orders-by-status", h.Admin.GetOrdersByStatus)
		admin.GET("/events", h.Admin.GetEvents)
		admin.GET("/orders", h.Admin.GetOrders)
		admin.GET("/orders/:id", h.Admin.GetOrder)
		admin.GET("/orders/:id/receipt", h.Admin.GetOrderReceipt)
		admin.GET("/crm/stats", h.Admin.GetCRMStats)
	}
}
