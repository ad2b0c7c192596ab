package main

import (
	"github.com/emberline/storefront/internal/config"
	"github.com/emberline/storefront/internal/logger"
	"github.com/emberline/storefront/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	products := []models.Product{
		{
			Slug:          "brasero-80",
			Name:          "Brasero 80 Fire Bowl",
			Description:   "Hand-finished corten steel fire bowl, 80 cm. Develops a protective patina outdoors.",
			PriceAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(890.00)),
			PriceCurrency: "EUR",
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1523301343968-6a6ebf63c672?w=800",
			}),
			Tags:      models.StringArray([]string{"Fire", "Outdoor", "Corten"}),
			IsActive:  true,
			SortOrder: 100,
		},
		{
			Slug:          "brasero-60",
			Name:          "Brasero 60 Fire Bowl",
			Description:   "Compact corten steel fire bowl, 60 cm, for terraces and small gardens.",
			PriceAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(590.00)),
			PriceCurrency: "EUR",
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1475855581690-80accde3ae2b?w=800",
			}),
			Tags:      models.StringArray([]string{"Fire", "Outdoor", "Corten"}),
			IsActive:  true,
			SortOrder: 90,
		},
		{
			Slug:          "plancha-ring",
			Name:          "Plancha Cooking Ring",
			Description:   "Steel plancha ring that turns the 80 cm bowl into a grill surface.",
			PriceAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(240.00)),
			PriceCurrency: "EUR",
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1529262365544-55d0e3143087?w=800",
			}),
			Tags:      models.StringArray([]string{"Cooking", "Accessory"}),
			IsActive:  true,
			SortOrder: 80,
		},
		{
			Slug:          "rain-cover-80",
			Name:          "Rain Cover 80",
			Description:   "Waterproof cover sized for the 80 cm bowl, keeps ash dry between fires.",
			PriceAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(69.00)),
			PriceCurrency: "EUR",
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1516571748831-5d81767b788d?w=800",
			}),
			Tags:      models.StringArray([]string{"Cover", "Accessory"}),
			IsActive:  true,
			SortOrder: 70,
		},
		{
			Slug:          "firewood-bundle",
			Name:          "Kiln-Dried Firewood Bundle",
			Description:   "40 L bundle of kiln-dried oak, below 18% moisture.",
			PriceAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(24.50)),
			PriceCurrency: "EUR",
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1476342055528-22552c27e48e?w=800",
			}),
			Tags:      models.StringArray([]string{"Fuel"}),
			IsActive:  true,
			SortOrder: 60,
		},
		{
			Slug:          "retired-poker",
			Name:          "Fire Poker (Retired)",
			Description:   "Discontinued poker model, kept for order history.",
			PriceAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(35.00)),
			PriceCurrency: "EUR",
			Tags:          models.StringArray([]string{"Accessory"}),
			IsActive:      false,
			SortOrder:     10,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", product.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Slug)
		}
	}

	stdLog.Printf("Seed finished")
}
