// internal/interfaces/http/handlers/admin.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vision-studio/storefront-backend/internal/config"
	"github.com/vision-studio/storefront-backend/internal/domain/analytics"
	"github.com/vision-studio/storefront-backend/internal/domain/order"
	"github.com/vision-studio/storefront-backend/internal/infrastructure/crm"
	"github.com/vision-studio/storefront-backend/internal/pkg/pdf"
)

// AdminHandler handles the admin dashboard endpoints
type AdminHandler struct {
	analyticsService *analytics.Service
	orderService     *order.Service
	crmClient        *crm.Client
	pdfService       *pdf.Service
	config           *config.Config
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(analyticsService *analytics.Service, orderService *order.Service, crmClient *crm.Client, pdfService *pdf.Service, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		analyticsService: analyticsService,
		orderService:     orderService,
		crmClient:        crmClient,
		pdfService:       pdfService,
		config:           cfg,
	}
}

// GetDashboard handles GET /admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.analyticsService.GetDashboardStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to compute dashboard statistics",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dashboard statistics retrieved",
		"data":    stats,
	})
}

// GetTopProducts handles GET /admin/dashboard/top-products
func (h *AdminHandler) GetTopProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	top, err := h.analyticsService.GetTopProducts(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to compute top products",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Top products retrieved",
		"data":    top,
	})
}

// GetOrdersByStatus handles GET /admin/dashboard/orders-by-status
func (h *AdminHandler) GetOrdersByStatus(c *gin.Context) {
	byStatus, err := h.analyticsService.GetOrdersByStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to compute order statistics",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order statistics retrieved",
		"data":    byStatus,
	})
}

// GetEvents handles GET /admin/events
func (h *AdminHandler) GetEvents(c *gin.Context) {
	var req analytics.EventListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	response, err := h.analyticsService.GetEvents(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve events",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Events retrieved successfully",
		"data":    response,
	})
}

// GetOrders handles GET /admin/orders
func (h *AdminHandler) GetOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	response, err := h.orderService.List(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetOrder handles GET /admin/orders/:id
func (h *AdminHandler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// GetOrderReceipt handles GET /admin/orders/:id/receipt
func (h *AdminHandler) GetOrderReceipt(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	receipt, err := h.pdfService.GenerateReceipt(o)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate receipt",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", o.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", receipt)
}

// GetCRMStats handles GET /admin/crm/stats
func (h *AdminHandler) GetCRMStats(c *gin.Context) {
	if !h.crmClient.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "CRM is not configured",
		})
		return
	}

	stats, err := h.crmClient.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to retrieve CRM statistics",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "CRM statistics retrieved",
		"data":    stats,
	})
}
