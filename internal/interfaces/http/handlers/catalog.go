// internal/interfaces/http/handlers/catalog.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vision-studio/storefront-backend/internal/config"
	"github.com/vision-studio/storefront-backend/internal/domain/analytics"
	"github.com/vision-studio/storefront-backend/internal/domain/catalog"
)

// CatalogHandler handles catalog endpoints
type CatalogHandler struct {
	catalogService *catalog.Service
	tracker        *analytics.Tracker
	config         *config.Config
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *catalog.Service, tracker *analytics.Tracker, cfg *config.Config) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		tracker:        tracker,
		config:         cfg,
	}
}

// GetProducts handles GET /products
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	var req catalog.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	response, err := h.catalogService.GetProducts(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve products",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    response,
	})
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	product, err := h.catalogService.Product(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.tracker.Track(analytics.EventPageView, getOrCreateSessionID(c), "", map[string]any{
		"page":       "product",
		"product_id": product.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    product,
	})
}

// GetCategories handles GET /products/categories
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalogService.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve categories",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Categories retrieved successfully",
		"data":    categories,
	})
}

// GetPackages handles GET /packages
func (h *CatalogHandler) GetPackages(c *gin.Context) {
	kind := catalog.PackageKind(c.Query("kind"))
	if kind != "" && kind != catalog.PackageKindRoom && kind != catalog.PackageKindStyle {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid package kind",
		})
		return
	}

	packages, err := h.catalogService.GetPackages(c.Request.Context(), kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve packages",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Packages retrieved successfully",
		"data":    packages,
	})
}

// GetPackage handles GET /packages/:id
func (h *CatalogHandler) GetPackage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid package ID",
		})
		return
	}

	pkg, err := h.catalogService.Package(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Package retrieved successfully",
		"data": gin.H{
			"id":      pkg.BundleID(),
			"package": pkg,
		},
	})
}
