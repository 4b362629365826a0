// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"fmt"

	"github.com/vision-studio/storefront-backend/internal/config"
	"gorm.io/gorm"
)

// Service handles catalog reads. The catalog is seeded at startup and is
// read-only at runtime; there is no admin mutation surface for it.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Category string `form:"category"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=24"`
}

// ProductListResponse represents a page of products
type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// PackageResponse represents a package with its synthetic bundle identifier
type PackageResponse struct {
	BundleID uint `json:"id"`
	Package
}

// GetProducts retrieves active products, optionally filtered by category
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest) (*ProductListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 24
	}

	query := s.db.WithContext(ctx).Model(&Product{}).Where("is_active = ?", true)
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	err := query.Preload("Variants").Preload("Sizes").
		Order("id").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ProductListResponse{
		Products: products,
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
	}, nil
}

// Product retrieves a single active product with its variants and sizes
func (s *Service) Product(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).
		Preload("Variants").Preload("Sizes").
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		return nil, fmt.Errorf("product not found or inactive")
	}
	return &product, nil
}

// Variant retrieves a variant belonging to the given product
func (s *Service) Variant(ctx context.Context, productID, variantID uint) (*Variant, error) {
	var variant Variant
	err := s.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		First(&variant).Error
	if err != nil {
		return nil, fmt.Errorf("product variant not found")
	}
	return &variant, nil
}

// Size retrieves a size option belonging to the given product
func (s *Service) Size(ctx context.Context, productID, sizeID uint) (*Size, error) {
	var size Size
	err := s.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", sizeID, productID).
		First(&size).Error
	if err != nil {
		return nil, fmt.Errorf("product size not found")
	}
	return &size, nil
}

// GetPackages retrieves all active packages with their constituents
func (s *Service) GetPackages(ctx context.Context, kind PackageKind) ([]PackageResponse, error) {
	query := s.db.WithContext(ctx).Model(&Package{}).Where("is_active = ?", true)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var packages []Package
	if err := query.Preload("Items.Product").Order("id").Find(&packages).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve packages: %w", err)
	}

	responses := make([]PackageResponse, len(packages))
	for i, pkg := range packages {
		responses[i] = PackageResponse{BundleID: pkg.BundleID(), Package: pkg}
	}
	return responses, nil
}

// Package resolves a package by its synthetic bundle identifier
func (s *Service) Package(ctx context.Context, bundleID uint) (*Package, error) {
	if bundleID <= PackageIDOffset {
		return nil, fmt.Errorf("invalid bundle id %d", bundleID)
	}

	var pkg Package
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Where("id = ? AND is_active = ?", bundleID-PackageIDOffset, true).
		First(&pkg).Error
	if err != nil {
		return nil, fmt.Errorf("package not found or inactive")
	}
	return &pkg, nil
}

// Categories returns the distinct active product categories
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).Model(&Product{}).
		Where("is_active = ?", true).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}
