package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrykozlov/storefront-backend/pkg/db/models"
	"github.com/dmitrykozlov/storefront-backend/pkg/enums"
	"github.com/dmitrykozlov/storefront-backend/pkg/pagination"
)

// Actor identifies the authenticated principal driving an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// OrderItemDTO is the transport shape of a line item.
type OrderItemDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderDTO is the transport shape of an order with its items.
type OrderDTO struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Items     []OrderItemDTO  `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CreateOrderInput carries the fields accepted on order creation.
type CreateOrderInput struct {
	Status string `json:"status,omitempty" validate:"omitempty,max=50"`
}

// UpdateOrderInput is a merge-patch: nil fields keep their stored values.
type UpdateOrderInput struct {
	Status *string `json:"status,omitempty" validate:"omitempty,max=50"`
}

// AddItemInput attaches a product line to an order.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// ListResult bundles an order page with its pagination envelope.
type ListResult struct {
	Orders []OrderDTO      `json:"orders"`
	Page   pagination.Page `json:"pagination"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			CreatedAt: item.CreatedAt,
		})
	}
	return &OrderDTO{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    o.Status,
		Total:     o.Total,
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func fromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
