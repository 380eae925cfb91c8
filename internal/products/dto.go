package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrykozlov/storefront-backend/pkg/db/models"
	"github.com/dmitrykozlov/storefront-backend/pkg/pagination"
)

// ProductDTO is the transport shape for catalog reads.
type ProductDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	Description   *string         `json:"description,omitempty"`
	Stock         int             `json:"stock"`
	AverageRating *float64        `json:"average_rating"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CreateProductInput carries the fields accepted on product creation.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Category    string          `json:"category" validate:"required,max=100"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// UpdateProductInput is a merge-patch: nil fields keep their stored values.
type UpdateProductInput struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// ListParams captures catalog filters, sorting, and pagination.
type ListParams struct {
	Page      pagination.Params
	Category  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	SortBy    string
	SortOrder string
}

// ListResult bundles a product page with its pagination envelope.
type ListResult struct {
	Products []ProductDTO    `json:"products"`
	Page     pagination.Page `json:"pagination"`
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		Category:      p.Category,
		Description:   p.Description,
		Stock:         p.Stock,
		AverageRating: p.AverageRating,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
