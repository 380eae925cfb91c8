package policy

import (
	"github.com/dmitrykozlov/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmitrykozlov/storefront-backend/pkg/errors"
)

// Operation names a guarded mutation or privileged read.
type Operation string

const (
	OpProductCreate Operation = "product.create"
	OpProductUpdate Operation = "product.update"
	OpProductDelete Operation = "product.delete"

	OpOrderCreate  Operation = "order.create"
	OpOrderViewOwn Operation = "order.view_own"
	OpOrderViewAll Operation = "order.view_all"
	OpOrderUpdate  Operation = "order.update"
	OpOrderDelete  Operation = "order.delete"

	OpOrderItemCreateOwn Operation = "order.item_create_own"

	OpReviewCreate      Operation = "review.create"
	OpReviewUpdateOwn   Operation = "review.update_own"
	OpReviewDeleteOwn   Operation = "review.delete_own"
	OpReviewModerate    Operation = "review.moderate"
	OpReviewViewPending Operation = "review.view_pending"

	OpUserList Operation = "user.list"
)

// matrix is the closed permission table. Absent entries deny.
var matrix = map[Operation]map[enums.Role]bool{
	OpProductCreate: {enums.RoleManager: true, enums.RoleAdmin: true},
	OpProductUpdate: {enums.RoleManager: true, enums.RoleAdmin: true},
	OpProductDelete: {enums.RoleManager: true, enums.RoleAdmin: true},

	OpOrderCreate:  {enums.RoleCustomer: true},
	OpOrderViewOwn: {enums.RoleCustomer: true},
	OpOrderViewAll: {enums.RoleManager: true, enums.RoleAdmin: true},
	OpOrderUpdate:  {enums.RoleManager: true, enums.RoleAdmin: true},
	OpOrderDelete:  {enums.RoleAdmin: true},

	OpOrderItemCreateOwn: {enums.RoleCustomer: true},

	OpReviewCreate:      {enums.RoleCustomer: true},
	OpReviewUpdateOwn:   {enums.RoleCustomer: true, enums.RoleAdmin: true},
	OpReviewDeleteOwn:   {enums.RoleCustomer: true, enums.RoleAdmin: true},
	OpReviewModerate:    {enums.RoleAdmin: true},
	OpReviewViewPending: {enums.RoleAdmin: true},

	OpUserList: {enums.RoleAdmin: true},
}

// Allows reports whether the role may invoke the operation.
func Allows(role enums.Role, op Operation) bool {
	allowed, ok := matrix[op]
	if !ok {
		return false
	}
	return allowed[role]
}

// Authorize returns a typed forbidden error when the role is denied.
func Authorize(role enums.Role, op Operation) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown role")
	}
	if !Allows(role, op) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "operation not permitted for role")
	}
	return nil
}
