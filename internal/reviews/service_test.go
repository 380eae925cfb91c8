package reviews

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrykozlov/storefront-backend/pkg/db/models"
	"github.com/dmitrykozlov/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmitrykozlov/storefront-backend/pkg/errors"
	"github.com/dmitrykozlov/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Review{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		conn.Exec("DELETE FROM reviews")
		conn.Exec("DELETE FROM products")
		conn.Exec("DELETE FROM users")
	})
	return conn
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func buildService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn), &gormTxRunner{db: conn})
	require.NoError(t, err)
	return svc, conn
}

func mustCreateTestProduct(t *testing.T, conn *gorm.DB) *models.Product {
	t.Helper()
	price, err := decimal.NewFromString("19.99")
	require.NoError(t, err)
	product := &models.Product{
		Name:     "Reviewed Widget",
		Price:    price,
		Category: "gadgets",
		Stock:    5,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func customer(id uuid.UUID) Actor {
	return Actor{UserID: id, Role: enums.RoleCustomer}
}

func admin() Actor {
	return Actor{UserID: uuid.New(), Role: enums.RoleAdmin}
}

func averageRating(t *testing.T, conn *gorm.DB, productID uuid.UUID) *float64 {
	t.Helper()
	var product models.Product
	require.NoError(t, conn.Select("id", "average_rating").First(&product, "id = ?", productID).Error)
	return product.AverageRating
}

func TestCreateReviewStartsUnapproved(t *testing.T) {
	svc, conn := buildService(t)
	product := mustCreateTestProduct(t, conn)

	dto, err := svc.Create(context.Background(), customer(uuid.New()), CreateReviewInput{
		ProductID: product.ID,
		Rating:    4,
	})
	require.NoError(t, err)
	assert.False(t, dto.IsApproved)
	assert.Nil(t, averageRating(t, conn, product.ID), "unapproved reviews do not move the average")
}

func TestModerationDrivesAverage(t *testing.T) {
	svc, conn := buildService(t)
	product := mustCreateTestProduct(t, conn)
	mod := admin()

	first, err := svc.Create(context.Background(), customer(uuid.New()), CreateReviewInput{
		ProductID: product.ID,
		Rating:    4,
	})
	require.NoError(t, err)
	require.Nil(t, averageRating(t, conn, product.ID))

	approved, err := svc.Moderate(context.Background(), mod, first.ID, ModerateInput{Approved: true})
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	got := averageRating(t, conn, product.ID)
	require.NotNil(t, got)
	assert.InDelta(t, 4.0, *got, 1e-9)

	second, err := svc.Create(context.Background(), customer(uuid.New()), CreateReviewInput{
		ProductID: product.ID,
		Rating:    2,
	})
	require.NoError(t, err)
	_, err = svc.Moderate(context.Background(), mod, second.ID, ModerateInput{Approved: true})
	require.NoError(t, err)

	got = averageRating(t, conn, product.ID)
	require.NotNil(t, got)
	assert.InDelta(t, 3.0, *got, 1e-9)
}

func TestEditResetsApproval(t *testing.T) {
	svc, conn := buildService(t)
	product := mustCreateTestProduct(t, conn)
	author := customer(uuid.New())

	review, err := svc.Create(context.Background(), author, CreateReviewInput{
		ProductID: product.ID,
		Rating:    5,
	})
	require.NoError(t, err)
	_, err = svc.Moderate(context.Background(), admin(), review.ID, ModerateInput{Approved: true})
	require.NoError(t, err)
	require.NotNil(t, averageRating(t, conn, product.ID))

	rating := 3
	edited, err := svc.Update(context.Background(), author, review.ID, UpdateReviewInput{Rating: &rating})
	require.NoError(t, err)
	assert.False(t, edited.IsApproved, "content edits always require re-moderation")
	assert.Equal(t, 3, edited.Rating)
	assert.Nil(t, averageRating(t, conn, product.ID), "an edited review stops counting until re-approved")
}

func TestDeleteReviewRecomputesAverage(t *testing.T) {
	svc, conn := buildService(t)
	product := mustCreateTestProduct(t, conn)
	author := customer(uuid.New())

	review, err := svc.Create(context.Background(), author, CreateReviewInput{
		ProductID: product.ID,
		Rating:    5,
	})
	require.NoError(t, err)
	_, err = svc.Moderate(context.Background(), admin(), review.ID, ModerateInput{Approved: true})
	require.NoError(t, err)
	require.NotNil(t, averageRating(t, conn, product.ID))

	require.NoError(t, svc.Delete(context.Background(), author, review.ID))
	assert.Nil(t, averageRating(t, conn, product.ID))
}

func TestReviewOwnership(t *testing.T) {
	svc, conn := buildService(t)
	product := mustCreateTestProduct(t, conn)
	author := customer(uuid.New())
	stranger := customer(uuid.New())

	review, err := svc.Create(context.Background(), author, CreateReviewInput{
		ProductID: product.ID,
		Rating:    4,
	})
	require.NoError(t, err)

	rating := 1
	_, err = svc.Update(context.Background(), stranger, review.ID, UpdateReviewInput{Rating: &rating})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	err = svc.Delete(context.Background(), stranger, review.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	// Admins may edit or remove any review.
	_, err = svc.Update(context.Background(), admin(), review.ID, UpdateReviewInput{Rating: &rating})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), admin(), review.ID))
}

func TestModerateRequiresAdmin(t *testing.T) {
	svc, conn := buildService(t)
	product := mustCreateTestProduct(t, conn)

	review, err := svc.Create(context.Background(), customer(uuid.New()), CreateReviewInput{
		ProductID: product.ID,
		Rating:    4,
	})
	require.NoError(t, err)

	for _, role := range []enums.Role{enums.RoleCustomer, enums.RoleManager} {
		_, err := svc.Moderate(context.Background(), Actor{UserID: uuid.New(), Role: role}, review.ID, ModerateInput{Approved: true})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "role %s", role)
		assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	}
}

func TestCreateReviewValidation(t *testing.T) {
	svc, conn := buildService(t)
	product := mustCreateTestProduct(t, conn)
	author := customer(uuid.New())

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), author, CreateReviewInput{
			ProductID: product.ID,
			Rating:    rating,
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "rating %d", rating)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}

	short := "too short"
	_, err := svc.Create(context.Background(), author, CreateReviewInput{
		ProductID: product.ID,
		Rating:    3,
		Text:      &short,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Create(context.Background(), author, CreateReviewInput{
		ProductID: uuid.New(),
		Rating:    3,
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestReviewTextRules(t *testing.T) {
	svc, conn := buildService(t)
	product := mustCreateTestProduct(t, conn)
	author := customer(uuid.New())

	// Length counts characters, not bytes.
	short := "привет"
	_, err := svc.Create(context.Background(), author, CreateReviewInput{
		ProductID: product.ID,
		Rating:    4,
		Text:      &short,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	padded := "  отличный товар, рекомендую  "
	review, err := svc.Create(context.Background(), author, CreateReviewInput{
		ProductID: product.ID,
		Rating:    4,
		Text:      &padded,
	})
	require.NoError(t, err)

	var stored models.Review
	require.NoError(t, conn.First(&stored, "id = ?", review.ID).Error)
	require.NotNil(t, stored.Text)
	assert.Equal(t, "отличный товар, рекомендую", *stored.Text)
}

func TestGetReviewVisibility(t *testing.T) {
	svc, conn := buildService(t)
	product := mustCreateTestProduct(t, conn)
	author := customer(uuid.New())

	review, err := svc.Create(context.Background(), author, CreateReviewInput{
		ProductID: product.ID,
		Rating:    4,
	})
	require.NoError(t, err)

	// Pending reviews are hidden from everyone but moderators.
	_, err = svc.Get(context.Background(), author, review.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	got, err := svc.Get(context.Background(), admin(), review.ID)
	require.NoError(t, err)
	assert.False(t, got.IsApproved)

	_, err = svc.Moderate(context.Background(), admin(), review.ID, ModerateInput{Approved: true})
	require.NoError(t, err)

	got, err = svc.Get(context.Background(), customer(uuid.New()), review.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
}

func TestListPendingAndApproved(t *testing.T) {
	svc, conn := buildService(t)
	product := mustCreateTestProduct(t, conn)
	mod := admin()

	first, err := svc.Create(context.Background(), customer(uuid.New()), CreateReviewInput{
		ProductID: product.ID,
		Rating:    5,
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), customer(uuid.New()), CreateReviewInput{
		ProductID: product.ID,
		Rating:    2,
	})
	require.NoError(t, err)
	_, err = svc.Moderate(context.Background(), mod, first.ID, ModerateInput{Approved: true})
	require.NoError(t, err)

	page := pagination.Params{Page: 1, Limit: 10}

	pending, err := svc.ListPending(context.Background(), mod, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Page.Total)

	_, err = svc.ListPending(context.Background(), customer(uuid.New()), page)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	visible, err := svc.ListByProduct(context.Background(), product.ID, page)
	require.NoError(t, err)
	require.Equal(t, int64(1), visible.Page.Total)
	assert.Equal(t, first.ID, visible.Reviews[0].ID)
}
