package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrykozlov/storefront-backend/internal/inventory"
	"github.com/dmitrykozlov/storefront-backend/internal/policy"
	"github.com/dmitrykozlov/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmitrykozlov/storefront-backend/pkg/errors"
	"github.com/dmitrykozlov/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultOrderStatus = "pending"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order operations guarded by the role policy.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, actor Actor, page pagination.Params) (*ListResult, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, patch UpdateOrderInput) (*OrderDTO, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	AddItem(ctx context.Context, actor Actor, orderID uuid.UUID, input AddItemInput) (*OrderDTO, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	inventory inventory.Reserver
}

// NewService builds an order service with the required dependencies.
func NewService(repo *Repository, tx txRunner, reserver inventory.Reserver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if reserver == nil {
		return nil, fmt.Errorf("inventory reserver required")
	}
	return &service{repo: repo, tx: tx, inventory: reserver}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateOrderInput) (*OrderDTO, error) {
	if err := policy.Authorize(actor.Role, policy.OpOrderCreate); err != nil {
		return nil, err
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = defaultOrderStatus
	}

	// An order starts with no items, so its total starts at zero.
	order := &models.Order{
		UserID: actor.UserID,
		Status: status,
		Total:  decimal.Zero,
	}
	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return FromModel(created), nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.UserID != actor.UserID {
		if err := policy.Authorize(actor.Role, policy.OpOrderViewAll); err != nil {
			return nil, err
		}
	}
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, actor Actor, page pagination.Params) (*ListResult, error) {
	normalized := page.Normalize()

	var (
		rows  []models.Order
		total int64
		err   error
	)
	if policy.Allows(actor.Role, policy.OpOrderViewAll) {
		rows, total, err = s.repo.ListAll(ctx, normalized.Offset(), normalized.Limit)
	} else {
		if err := policy.Authorize(actor.Role, policy.OpOrderViewOwn); err != nil {
			return nil, err
		}
		rows, total, err = s.repo.ListByUser(ctx, actor.UserID, normalized.Offset(), normalized.Limit)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	return &ListResult{
		Orders: fromModels(rows),
		Page: pagination.Page{
			Page:  normalized.Page,
			Limit: normalized.Limit,
			Total: total,
		},
	}, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, patch UpdateOrderInput) (*OrderDTO, error) {
	if err := policy.Authorize(actor.Role, policy.OpOrderUpdate); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Status != nil {
		status := strings.TrimSpace(*patch.Status)
		if status == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must not be empty")
		}
		updates["status"] = status
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
			}
		}

		if err := recomputeTotal(ctx, repo, id); err != nil {
			return err
		}

		order, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := policy.Authorize(actor.Role, policy.OpOrderDelete); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		items, err := repo.ItemsByOrder(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}
		// Deleting an order returns its reserved stock.
		for _, item := range items {
			if err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := repo.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return nil
	})
}

func (s *service) AddItem(ctx context.Context, actor Actor, orderID uuid.UUID, input AddItemInput) (*OrderDTO, error) {
	if err := policy.Authorize(actor.Role, policy.OpOrderItemCreateOwn); err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}

		if err := s.inventory.Reserve(ctx, tx, input.ProductID, input.Quantity); err != nil {
			return err
		}

		item := &models.OrderItem{
			OrderID:   order.ID,
			ProductID: input.ProductID,
			Quantity:  input.Quantity,
		}
		if _, err := repo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order item")
		}

		if err := recomputeTotal(ctx, repo, order.ID); err != nil {
			return err
		}

		reloaded, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

// recomputeTotal rewrites order.total as the sum of quantity times the
// product's current price across the order's line items. Recomputing with no
// intervening changes is idempotent.
func recomputeTotal(ctx context.Context, repo *Repository, orderID uuid.UUID) error {
	lines, err := repo.PricedLines(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load priced lines")
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if err := repo.Update(ctx, orderID, map[string]any{"total": total}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write order total")
	}
	return nil
}
