// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// PackageIDOffset is added to a package's row ID to form the synthetic
// catalog identifier packages are addressed by. Line items created from a
// package still carry the constituent product IDs.
const PackageIDOffset = 20000

// Product represents a furniture catalog entry
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"` // Base price in cents
	Category    string         `gorm:"not null;size:100;index" json:"category"`
	Image       string         `gorm:"size:500" json:"image"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Variants []Variant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
	Sizes    []Size    `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"sizes,omitempty"`
}

// Variant represents a color/material option. Selecting a variant changes the
// composed line-item name but never the price.
type Variant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Color     string    `gorm:"not null;size:100" json:"color"`
	Material  string    `gorm:"size:100" json:"material"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Size represents a size option with a price adjustment over the base price
type Size struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ProductID       uint      `gorm:"not null;index" json:"product_id"`
	Label           string    `gorm:"not null;size:100" json:"label"`
	PriceAdjustment int64     `gorm:"default:0" json:"price_adjustment"` // In cents, may be negative
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PackageKind distinguishes room packages from design-style packages
type PackageKind string

const (
	PackageKindRoom  PackageKind = "room"
	PackageKindStyle PackageKind = "style"
)

// Package represents a fixed set of products addable to the cart as a batch
type Package struct {
	ID          uint           `gorm:"primaryKey" json:"-"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Kind        PackageKind    `gorm:"not null;size:20" json:"kind"`
	Image       string         `gorm:"size:500" json:"image"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []PackageItem `gorm:"foreignKey:PackageID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
}

// PackageItem links a package to one constituent product
type PackageItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PackageID uint `gorm:"not null;index" json:"package_id"`
	ProductID uint `gorm:"not null;index" json:"product_id"`

	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}

// TableName overrides
func (Product) TableName() string     { return "products" }
func (Variant) TableName() string     { return "product_variants" }
func (Size) TableName() string        { return "product_sizes" }
func (Package) TableName() string     { return "packages" }
func (PackageItem) TableName() string { return "package_items" }

// BundleID returns the synthetic catalog identifier for the package
func (p *Package) BundleID() uint {
	return p.ID + PackageIDOffset
}
