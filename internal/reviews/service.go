package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrykozlov/storefront-backend/internal/policy"
	"github.com/dmitrykozlov/storefront-backend/pkg/db/models"
	"github.com/dmitrykozlov/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmitrykozlov/storefront-backend/pkg/errors"
	"github.com/dmitrykozlov/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	minReviewTextLen = 10
	maxReviewTextLen = 1000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes review operations guarded by the role policy. Every
// mutation recomputes the owning product's average rating in the same
// transaction, so readers never observe a rating out of step with the
// approved review set.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateReviewInput) (*ReviewDTO, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*ReviewDTO, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, page pagination.Params) (*ListResult, error)
	ListPending(ctx context.Context, actor Actor, page pagination.Params) (*ListResult, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, patch UpdateReviewInput) (*ReviewDTO, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	Moderate(ctx context.Context, actor Actor, id uuid.UUID, input ModerateInput) (*ReviewDTO, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds a review service with the required dependencies.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateReviewInput) (*ReviewDTO, error) {
	if err := policy.Authorize(actor.Role, policy.OpReviewCreate); err != nil {
		return nil, err
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	if err := validateText(input.Text); err != nil {
		return nil, err
	}
	text := input.Text
	if text != nil {
		trimmed := strings.TrimSpace(*text)
		text = &trimmed
	}

	var created *models.Review
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		exists, err := repo.ProductExists(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		// New reviews start unapproved and contribute nothing to the
		// average until moderation approves them.
		review := &models.Review{
			ProductID:  input.ProductID,
			UserID:     actor.UserID,
			Rating:     input.Rating,
			Text:       text,
			IsApproved: false,
		}
		if _, err := repo.Create(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}

		if err := repo.RecomputeProductRating(ctx, input.ProductID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute rating")
		}
		created = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*ReviewDTO, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	// Unapproved reviews are visible to moderators only, not even their
	// author. Report NotFound rather than reveal the row exists.
	if !review.IsApproved && actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return FromModel(review), nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, page pagination.Params) (*ListResult, error) {
	normalized := page.Normalize()
	rows, total, err := s.repo.ListApprovedByProduct(ctx, productID, normalized.Offset(), normalized.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return &ListResult{
		Reviews: fromModels(rows),
		Page: pagination.Page{
			Page:  normalized.Page,
			Limit: normalized.Limit,
			Total: total,
		},
	}, nil
}

func (s *service) ListPending(ctx context.Context, actor Actor, page pagination.Params) (*ListResult, error) {
	if err := policy.Authorize(actor.Role, policy.OpReviewViewPending); err != nil {
		return nil, err
	}
	normalized := page.Normalize()
	rows, total, err := s.repo.ListPending(ctx, normalized.Offset(), normalized.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending reviews")
	}
	return &ListResult{
		Reviews: fromModels(rows),
		Page: pagination.Page{
			Page:  normalized.Page,
			Limit: normalized.Limit,
			Total: total,
		},
	}, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, patch UpdateReviewInput) (*ReviewDTO, error) {
	if err := policy.Authorize(actor.Role, policy.OpReviewUpdateOwn); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if patch.Rating != nil {
		if err := validateRating(*patch.Rating); err != nil {
			return nil, err
		}
		updates["rating"] = *patch.Rating
	}
	if patch.Text != nil {
		if err := validateText(patch.Text); err != nil {
			return nil, err
		}
		updates["text"] = strings.TrimSpace(*patch.Text)
	}

	var updated *models.Review
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		review, err := s.loadOwned(ctx, repo, actor, id)
		if err != nil {
			return err
		}

		if len(updates) > 0 {
			// Any content change drops approval; the review must pass
			// moderation again before it counts toward the average.
			updates["is_approved"] = false
			if err := repo.Update(ctx, id, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
			}
			if err := repo.RecomputeProductRating(ctx, review.ProductID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute rating")
			}
		}

		reloaded, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload review")
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := policy.Authorize(actor.Role, policy.OpReviewDeleteOwn); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		review, err := s.loadOwned(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
		}
		if err := repo.RecomputeProductRating(ctx, review.ProductID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute rating")
		}
		return nil
	})
}

func (s *service) Moderate(ctx context.Context, actor Actor, id uuid.UUID, input ModerateInput) (*ReviewDTO, error) {
	if err := policy.Authorize(actor.Role, policy.OpReviewModerate); err != nil {
		return nil, err
	}

	var updated *models.Review
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		review, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
		}

		// Moderation flips the approval flag without touching content.
		if err := repo.Update(ctx, id, map[string]any{"is_approved": input.Approved}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "moderate review")
		}
		if err := repo.RecomputeProductRating(ctx, review.ProductID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute rating")
		}

		reloaded, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload review")
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

// loadOwned fetches a review and enforces the ownership rule: customers may
// only touch their own reviews, admins may touch any.
func (s *service) loadOwned(ctx context.Context, repo *Repository, actor Actor, id uuid.UUID) (*models.Review, error) {
	review, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	if actor.Role != enums.RoleAdmin && review.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "review does not belong to user")
	}
	return review, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

func validateText(text *string) error {
	if text == nil {
		return nil
	}
	length := utf8.RuneCountInString(strings.TrimSpace(*text))
	if length < minReviewTextLen || length > maxReviewTextLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "review text must be between 10 and 1000 characters")
	}
	return nil
}
