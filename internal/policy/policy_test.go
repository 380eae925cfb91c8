package policy

import (
	"testing"

	"github.com/dmitrykozlov/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmitrykozlov/storefront-backend/pkg/errors"
)

func TestPermissionMatrix(t *testing.T) {
	cases := []struct {
		op       Operation
		customer bool
		manager  bool
		admin    bool
	}{
		{OpProductCreate, false, true, true},
		{OpProductUpdate, false, true, true},
		{OpProductDelete, false, true, true},
		{OpOrderCreate, true, false, false},
		{OpOrderViewOwn, true, false, false},
		{OpOrderViewAll, false, true, true},
		{OpOrderUpdate, false, true, true},
		{OpOrderDelete, false, false, true},
		{OpOrderItemCreateOwn, true, false, false},
		{OpReviewCreate, true, false, false},
		{OpReviewUpdateOwn, true, false, true},
		{OpReviewDeleteOwn, true, false, true},
		{OpReviewModerate, false, false, true},
		{OpReviewViewPending, false, false, true},
		{OpUserList, false, false, true},
	}

	for _, tc := range cases {
		t.Run(string(tc.op), func(t *testing.T) {
			if got := Allows(enums.RoleCustomer, tc.op); got != tc.customer {
				t.Errorf("customer: got %v want %v", got, tc.customer)
			}
			if got := Allows(enums.RoleManager, tc.op); got != tc.manager {
				t.Errorf("manager: got %v want %v", got, tc.manager)
			}
			if got := Allows(enums.RoleAdmin, tc.op); got != tc.admin {
				t.Errorf("admin: got %v want %v", got, tc.admin)
			}
		})
	}
}

func TestAuthorizeDeniesUnknownOperation(t *testing.T) {
	if Allows(enums.RoleAdmin, Operation("nonexistent")) {
		t.Fatal("unknown operation must deny")
	}
}

func TestAuthorizeErrors(t *testing.T) {
	if err := Authorize(enums.RoleManager, OpProductCreate); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}

	err := Authorize(enums.RoleCustomer, OpProductCreate)
	if err == nil {
		t.Fatal("expected deny")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden code, got %v", err)
	}

	err = Authorize(enums.Role("ghost"), OpProductCreate)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown role, got %v", err)
	}
}
