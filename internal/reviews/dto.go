package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrykozlov/storefront-backend/pkg/db/models"
	"github.com/dmitrykozlov/storefront-backend/pkg/enums"
	"github.com/dmitrykozlov/storefront-backend/pkg/pagination"
)

// Actor identifies the authenticated principal driving an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// ReviewDTO is the transport shape of a review.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	UserID     uuid.UUID `json:"user_id"`
	Rating     int       `json:"rating"`
	Text       *string   `json:"text,omitempty"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateReviewInput carries the fields accepted on review creation.
type CreateReviewInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required,gte=1,lte=5"`
	Text      *string   `json:"text,omitempty" validate:"omitempty,min=10,max=1000"`
}

// UpdateReviewInput is a merge-patch over review content. Any content
// change drops the approval flag.
type UpdateReviewInput struct {
	Rating *int    `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Text   *string `json:"text,omitempty" validate:"omitempty,min=10,max=1000"`
}

// ModerateInput sets the approval flag without touching content.
type ModerateInput struct {
	Approved bool `json:"approved"`
}

// ListResult bundles a review page with its pagination envelope.
type ListResult struct {
	Reviews []ReviewDTO     `json:"reviews"`
	Page    pagination.Page `json:"pagination"`
}

func FromModel(r *models.Review) *ReviewDTO {
	if r == nil {
		return nil
	}
	return &ReviewDTO{
		ID:         r.ID,
		ProductID:  r.ProductID,
		UserID:     r.UserID,
		Rating:     r.Rating,
		Text:       r.Text,
		IsApproved: r.IsApproved,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func fromModels(rows []models.Review) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
