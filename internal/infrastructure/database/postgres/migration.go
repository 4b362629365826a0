// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/vision-studio/storefront-backend/internal/domain/analytics"
	"github.com/vision-studio/storefront-backend/internal/domain/catalog"
	"github.com/vision-studio/storefront-backend/internal/domain/order"
	"github.com/vision-studio/storefront-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&user.User{},
		&catalog.Product{},
		&catalog.Variant{},
		&catalog.Size{},
		&catalog.Package{},
		&catalog.PackageItem{},
		&order.Order{},
		&order.OrderItem{},
		&analytics.JourneyEvent{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SeedData seeds the catalog and an initial admin user. Seeding is
// idempotent: it runs only against an empty catalog.
func SeedData(db *gorm.DB) error {
	if err := seedAdminUser(db); err != nil {
		return err
	}

	var count int64
	db.Model(&catalog.Product{}).Count(&count)
	if count > 0 {
		return nil
	}

	if err := seedProducts(db); err != nil {
		return err
	}
	return seedPackages(db)
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	db.Model(&user.User{}).Where("is_admin = ?", true).Count(&count)
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("ChangeMe123!"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := user.User{
		Email:     "admin@visionstudio.local",
		Password:  string(hash),
		FirstName: "Vision",
		LastName:  "Admin",
		IsActive:  true,
		IsAdmin:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}

func seedProducts(db *gorm.DB) error {
	products := []catalog.Product{
		{
			Name:        "Sofa",
			Description: "A deep-seated fabric sofa with solid wood legs.",
			Price:       129900,
			Category:    "living-room",
			Image:       "/images/products/sofa.jpg",
			IsActive:    true,
			Variants: []catalog.Variant{
				{Color: "Charcoal", Material: "Fabric"},
				{Color: "Sand", Material: "Fabric"},
				{Color: "Forest", Material: "Velvet"},
			},
			Sizes: []catalog.Size{
				{Label: "2-Seater", PriceAdjustment: 0},
				{Label: "3-Seater", PriceAdjustment: 20000},
				{Label: "L-Shape", PriceAdjustment: 45000},
			},
		},
		{
			Name:        "Coffee Table",
			Description: "Oak coffee table with a lower storage shelf.",
			Price:       34900,
			Category:    "living-room",
			Image:       "/images/products/coffee-table.jpg",
			IsActive:    true,
			Variants: []catalog.Variant{
				{Color: "Natural Oak", Material: "Wood"},
				{Color: "Walnut", Material: "Wood"},
			},
		},
		{
			Name:        "Bookshelf",
			Description: "Five-tier open bookshelf in powder-coated steel.",
			Price:       49900,
			Category:    "living-room",
			Image:       "/images/products/bookshelf.jpg",
			IsActive:    true,
			Variants: []catalog.Variant{
				{Color: "Black", Material: "Steel"},
				{Color: "White", Material: "Steel"},
			},
		},
		{
			Name:        "Bed Frame",
			Description: "Upholstered bed frame with slatted base.",
			Price:       89900,
			Category:    "bedroom",
			Image:       "/images/products/bed-frame.jpg",
			IsActive:    true,
			Variants: []catalog.Variant{
				{Color: "Grey", Material: "Fabric"},
				{Color: "Beige", Material: "Linen"},
			},
			Sizes: []catalog.Size{
				{Label: "Queen", PriceAdjustment: 0},
				{Label: "King", PriceAdjustment: 25000},
			},
		},
		{
			Name:        "Wardrobe",
			Description: "Three-door wardrobe with mirror and internal drawers.",
			Price:       119900,
			Category:    "bedroom",
			Image:       "/images/products/wardrobe.jpg",
			IsActive:    true,
		},
		{
			Name:        "Nightstand",
			Description: "Compact two-drawer nightstand.",
			Price:       19900,
			Category:    "bedroom",
			Image:       "/images/products/nightstand.jpg",
			IsActive:    true,
			Variants: []catalog.Variant{
				{Color: "Natural Oak", Material: "Wood"},
				{Color: "White", Material: "Wood"},
			},
		},
		{
			Name:        "Dining Table",
			Description: "Extendable dining table seating four to eight.",
			Price:       99900,
			Category:    "dining",
			Image:       "/images/products/dining-table.jpg",
			IsActive:    true,
			Sizes: []catalog.Size{
				{Label: "4-Seater", PriceAdjustment: 0},
				{Label: "6-Seater", PriceAdjustment: 20000},
				{Label: "8-Seater", PriceAdjustment: 40000},
			},
		},
		{
			Name:        "Dining Chair",
			Description: "Stackable moulded chair with oak legs.",
			Price:       14900,
			Category:    "dining",
			Image:       "/images/products/dining-chair.jpg",
			IsActive:    true,
			Variants: []catalog.Variant{
				{Color: "White", Material: "Polypropylene"},
				{Color: "Black", Material: "Polypropylene"},
				{Color: "Terracotta", Material: "Polypropylene"},
			},
		},
		{
			Name:        "Desk",
			Description: "Minimal work desk with cable tray.",
			Price:       54900,
			Category:    "office",
			Image:       "/images/products/desk.jpg",
			IsActive:    true,
			Sizes: []catalog.Size{
				{Label: "120cm", PriceAdjustment: 0},
				{Label: "160cm", PriceAdjustment: 15000},
			},
		},
		{
			Name:        "Office Chair",
			Description: "Ergonomic task chair with lumbar support.",
			Price:       64900,
			Category:    "office",
			Image:       "/images/products/office-chair.jpg",
			IsActive:    true,
			Variants: []catalog.Variant{
				{Color: "Black", Material: "Mesh"},
				{Color: "Grey", Material: "Mesh"},
			},
		},
		{
			Name:        "Floor Lamp",
			Description: "Arc floor lamp with dimmable warm light.",
			Price:       24900,
			Category:    "lighting",
			Image:       "/images/products/floor-lamp.jpg",
			IsActive:    true,
			Variants: []catalog.Variant{
				{Color: "Brass", Material: "Metal"},
				{Color: "Matte Black", Material: "Metal"},
			},
		},
		{
			Name:        "Rug",
			Description: "Hand-woven wool rug.",
			Price:       39900,
			Category:    "decor",
			Image:       "/images/products/rug.jpg",
			IsActive:    true,
			Sizes: []catalog.Size{
				{Label: "160x230", PriceAdjustment: 0},
				{Label: "200x300", PriceAdjustment: 20000},
			},
		},
	}

	if err := db.Create(&products).Error; err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	return nil
}

func seedPackages(db *gorm.DB) error {
	// Resolve seeded products by name for package composition
	idByName := map[string]uint{}
	var products []catalog.Product
	if err := db.Find(&products).Error; err != nil {
		return fmt.Errorf("failed to load products for packages: %w", err)
	}
	for _, p := range products {
		idByName[p.Name] = p.ID
	}

	packages := []struct {
		pkg   catalog.Package
		items []string
	}{
		{
			pkg: catalog.Package{
				Name:        "Living Room Essentials",
				Description: "Sofa, coffee table and bookshelf for a complete living room.",
				Kind:        catalog.PackageKindRoom,
				Image:       "/images/packages/living-room.jpg",
				IsActive:    true,
			},
			items: []string{"Sofa", "Coffee Table", "Bookshelf"},
		},
		{
			pkg: catalog.Package{
				Name:        "Bedroom Starter",
				Description: "Bed frame, wardrobe and nightstand.",
				Kind:        catalog.PackageKindRoom,
				Image:       "/images/packages/bedroom.jpg",
				IsActive:    true,
			},
			items: []string{"Bed Frame", "Wardrobe", "Nightstand"},
		},
		{
			pkg: catalog.Package{
				Name:        "Home Office Setup",
				Description: "Desk, office chair and floor lamp.",
				Kind:        catalog.PackageKindRoom,
				Image:       "/images/packages/office.jpg",
				IsActive:    true,
			},
			items: []string{"Desk", "Office Chair", "Floor Lamp"},
		},
		{
			pkg: catalog.Package{
				Name:        "Scandinavian Style",
				Description: "Light woods and soft textiles across the home.",
				Kind:        catalog.PackageKindStyle,
				Image:       "/images/packages/scandinavian.jpg",
				IsActive:    true,
			},
			items: []string{"Sofa", "Coffee Table", "Rug", "Floor Lamp"},
		},
		{
			pkg: catalog.Package{
				Name:        "Modern Minimal",
				Description: "Clean lines for living and dining.",
				Kind:        catalog.PackageKindStyle,
				Image:       "/images/packages/minimal.jpg",
				IsActive:    true,
			},
			items: []string{"Dining Table", "Dining Chair", "Bookshelf", "Rug"},
		},
	}

	for _, entry := range packages {
		pkg := entry.pkg
		for _, name := range entry.items {
			productID, ok := idByName[name]
			if !ok {
				return fmt.Errorf("package %q references unknown product %q", pkg.Name, name)
			}
			pkg.Items = append(pkg.Items, catalog.PackageItem{ProductID: productID})
		}
		if err := db.Create(&pkg).Error; err != nil {
			return fmt.Errorf("failed to seed package %q: %w", pkg.Name, err)
		}
	}
	return nil
}
