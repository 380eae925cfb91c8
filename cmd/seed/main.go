package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmitrykozlov/storefront-backend/internal/users"
	"github.com/dmitrykozlov/storefront-backend/pkg/config"
	"github.com/dmitrykozlov/storefront-backend/pkg/db"
	"github.com/dmitrykozlov/storefront-backend/pkg/db/models"
	"github.com/dmitrykozlov/storefront-backend/pkg/enums"
	"github.com/dmitrykozlov/storefront-backend/pkg/logger"
	"github.com/dmitrykozlov/storefront-backend/pkg/security"
)

type seedUser struct {
	email    string
	password string
	role     enums.Role
}

type seedProduct struct {
	name        string
	price       string
	category    string
	description string
	stock       int
}

var seedUsers = []seedUser{
	{"admin@storefront.local", "admin-change-me", enums.RoleAdmin},
	{"manager@storefront.local", "manager-change-me", enums.RoleManager},
	{"customer@storefront.local", "customer-change-me", enums.RoleCustomer},
}

var seedProducts = []seedProduct{
	{"Mechanical Keyboard", "89.99", "electronics", "Hot-swappable switches, USB-C", 25},
	{"Walnut Desk Organizer", "34.50", "home", "Five compartments, oiled finish", 40},
	{"Pour-Over Coffee Kit", "48.00", "kitchen", "Carafe, dripper, and filters", 15},
	{"Trail Running Socks", "14.99", "apparel", "Merino blend, three pack", 120},
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		logg.Error(ctx, "refusing to seed a production database", nil)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := seed(ctx, cfg, logg, dbClient.DB()); err != nil {
		logg.Error(ctx, "seeding failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "seeding complete")
}

// seed is idempotent: rows already present by email or name are skipped.
func seed(ctx context.Context, cfg *config.Config, logg *logger.Logger, conn *gorm.DB) error {
	repo := users.NewRepository(conn)

	for _, u := range seedUsers {
		_, err := repo.FindByEmail(ctx, u.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := security.HashPassword(u.password, cfg.Password)
		if err != nil {
			return err
		}
		if _, err := repo.Create(ctx, users.CreateUserDTO{
			Email:        u.email,
			PasswordHash: hash,
			Role:         u.role,
		}); err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "email", u.email), "seeded user")
	}

	for _, p := range seedProducts {
		var count int64
		if err := conn.WithContext(ctx).Model(&models.Product{}).Where("name = ?", p.name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return err
		}
		description := p.description
		if err := conn.WithContext(ctx).Create(&models.Product{
			Name:        p.name,
			Price:       price,
			Category:    p.category,
			Description: &description,
			Stock:       p.stock,
		}).Error; err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "product", p.name), "seeded product")
	}

	return nil
}
