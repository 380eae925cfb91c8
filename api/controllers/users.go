package controllers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmitrykozlov/storefront-backend/api/middleware"
	"github.com/dmitrykozlov/storefront-backend/api/responses"
	"github.com/dmitrykozlov/storefront-backend/internal/policy"
	"github.com/dmitrykozlov/storefront-backend/internal/users"
	pkgerrors "github.com/dmitrykozlov/storefront-backend/pkg/errors"
	"github.com/dmitrykozlov/storefront-backend/pkg/logger"
	"github.com/dmitrykozlov/storefront-backend/pkg/pagination"
)

type userListResponse struct {
	Users []users.UserDTO `json:"users"`
	Page  pagination.Page `json:"pagination"`
}

// ListUsers returns the account directory for admins.
func ListUsers(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user repository unavailable"))
			return
		}

		if err := policy.Authorize(middleware.RoleFromContext(r.Context()), policy.OpUserList); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.FromRequest(r).Normalize()
		rows, total, err := repo.List(r.Context(), page.Offset(), page.Limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users"))
			return
		}

		out := make([]users.UserDTO, 0, len(rows))
		for i := range rows {
			out = append(out, *users.FromModel(&rows[i]))
		}
		responses.WriteSuccess(w, userListResponse{
			Users: out,
			Page: pagination.Page{
				Page:  page.Page,
				Limit: page.Limit,
				Total: total,
			},
		})
	}
}

// CurrentUser returns the caller's own account.
func CurrentUser(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user repository unavailable"))
			return
		}

		rawID := middleware.UserIDFromContext(r.Context())
		userID, err := uuid.Parse(rawID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		user, err := repo.FindByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user"))
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}
