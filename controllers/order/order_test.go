package orderController_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"lms/models"
	"lms/models/commerce"
	courseModels "lms/models/course"
	"lms/testutil"
	"lms/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type cartBody struct {
	Cart       commerce.Cart `json:"cart"`
	ItemCount  int           `json:"item_count"`
	TotalCents int64         `json:"total_cents"`
}

func addToCart(env *testutil.Env, token string, courseID uint) testutil.Response {
	return env.Do(http.MethodPost, "/cart/items", map[string]uint{"course_id": courseID}, token)
}

func TestCartItems(t *testing.T) {
	env := testutil.Setup(t)
	buyer := env.CreateUser("Buyer", "buyer@example.com", models.RoleUser)
	token := env.Token(buyer)

	goCourse, _ := env.SeedCourse(testutil.CourseOptions{Title: "Go", PriceCents: 2500})
	rust, _ := env.SeedCourse(testutil.CourseOptions{Title: "Rust", PriceCents: 1500})
	hidden, _ := env.SeedCourse(testutil.CourseOptions{Title: "Hidden", PriceCents: 100, Unpublished: true})
	owned, _ := env.SeedCourse(testutil.CourseOptions{Title: "Owned", PriceCents: 900})
	env.Enroll(buyer, owned, courseModels.EnrollmentEnrolled)

	resp := env.Do(http.MethodGet, "/cart", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	var cart cartBody
	resp.Decode(t, &cart)
	assert.Zero(t, cart.ItemCount)

	require.Equal(t, http.StatusCreated, addToCart(env, token, goCourse.ID).Code)
	resp = addToCart(env, token, rust.ID)
	require.Equal(t, http.StatusCreated, resp.Code)
	resp.Decode(t, &cart)
	assert.Equal(t, 2, cart.ItemCount)
	assert.Equal(t, int64(4000), cart.TotalCents)

	assert.Equal(t, http.StatusConflict, addToCart(env, token, goCourse.ID).Code)
	assert.Equal(t, http.StatusNotFound, addToCart(env, token, hidden.ID).Code)
	assert.Equal(t, http.StatusConflict, addToCart(env, token, owned.ID).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, env.Do(http.MethodPost, "/cart/items", map[string]uint{}, token).Code)

	resp = env.Do(http.MethodDelete, fmt.Sprintf("/cart/items/%d", rust.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	resp.Decode(t, &cart)
	assert.Equal(t, 1, cart.ItemCount)
	assert.Equal(t, http.StatusNotFound, env.Do(http.MethodDelete, fmt.Sprintf("/cart/items/%d", rust.ID), nil, token).Code)

	require.Equal(t, http.StatusOK, env.Do(http.MethodDelete, "/cart", nil, token).Code)
	env.Do(http.MethodGet, "/cart", nil, token).Decode(t, &cart)
	assert.Zero(t, cart.ItemCount)

	assert.Equal(t, http.StatusUnauthorized, env.Do(http.MethodGet, "/cart", nil, "").Code)
}

func TestCheckoutRequiresItemsAndGateway(t *testing.T) {
	env := testutil.Setup(t)
	token := env.Token(env.CreateUser("Buyer", "buyer@example.com", models.RoleUser))

	resp := env.Do(http.MethodPost, "/order/checkout", nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Your cart is empty!", resp.Message)

	course, _ := env.SeedCourse(testutil.CourseOptions{Title: "Go", PriceCents: 2500})
	require.Equal(t, http.StatusCreated, addToCart(env, token, course.ID).Code)

	resp = env.Do(http.MethodPost, "/order/checkout", nil, token)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	var orders int64
	env.DB.Model(&commerce.Order{}).Count(&orders)
	assert.Zero(t, orders)
}

func TestFreeCheckoutCompletesImmediately(t *testing.T) {
	env := testutil.Setup(t)
	buyer := env.CreateUser("Buyer", "buyer@example.com", models.RoleUser)
	token := env.Token(buyer)

	course, _ := env.SeedCourse(testutil.CourseOptions{Title: "Free Go"})
	require.Equal(t, http.StatusCreated, addToCart(env, token, course.ID).Code)

	resp := env.Do(http.MethodPost, "/order/checkout", nil, token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	var order commerce.Order
	resp.Decode(t, &order)
	assert.Equal(t, commerce.OrderPaid, order.Status)
	assert.NotNil(t, order.PaidAt)
	assert.Zero(t, order.TotalCents)

	var enrollment courseModels.Enrollment
	require.NoError(t, env.DB.Where("user_id = ? AND course_id = ?", buyer.ID, course.ID).First(&enrollment).Error)
	require.NotNil(t, enrollment.OrderID)
	assert.Equal(t, order.ID, *enrollment.OrderID)

	assert.Contains(t, env.Events.Types(), utils.EventOrderPaid)
	assert.Contains(t, env.Events.Types(), utils.EventEnrollmentCreated)
}

func TestPaidCheckoutAndConfirm(t *testing.T) {
	env := testutil.Setup(t)
	gateway := env.NewFakeGateway()
	buyer := env.CreateUser("Buyer", "buyer@example.com", models.RoleUser)
	token := env.Token(buyer)

	goCourse, _ := env.SeedCourse(testutil.CourseOptions{Title: "Go", PriceCents: 2500})
	rust, _ := env.SeedCourse(testutil.CourseOptions{Title: "Rust", PriceCents: 1500})
	require.Equal(t, http.StatusCreated, addToCart(env, token, goCourse.ID).Code)
	require.Equal(t, http.StatusCreated, addToCart(env, token, rust.ID).Code)

	resp := env.Do(http.MethodPost, "/order/checkout", nil, token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	var order commerce.Order
	resp.Decode(t, &order)
	assert.Equal(t, commerce.OrderPending, order.Status)
	assert.Equal(t, int64(4000), order.TotalCents)
	assert.Equal(t, "USD", order.Currency)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "pay_"+order.OrderNumber, order.PaymentReference)
	assert.Contains(t, order.PaymentURL, "/checkout/pay_")

	confirmPath := fmt.Sprintf("/order/%d/confirm", order.ID)
	resp = env.Do(http.MethodPost, confirmPath, nil, token)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "Payment not completed yet", resp.Message)

	stranger := env.Token(env.CreateUser("Other", "other@example.com", models.RoleUser))
	assert.Equal(t, http.StatusNotFound, env.Do(http.MethodPost, confirmPath, nil, stranger).Code)

	// price changes after checkout do not affect the order
	require.NoError(t, env.DB.Model(&courseModels.Course{}).Where("id = ?", goCourse.ID).Update("price_cents", 9900).Error)

	gateway.SetStatus(order.PaymentReference, utils.PaymentSucceeded, -1)
	resp = env.Do(http.MethodPost, confirmPath, nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	resp.Decode(t, &order)
	assert.Equal(t, commerce.OrderPaid, order.Status)

	var enrolled int64
	env.DB.Model(&courseModels.Enrollment{}).Where("user_id = ?", buyer.ID).Count(&enrolled)
	assert.Equal(t, int64(2), enrolled)

	var cart struct {
		ItemCount int `json:"item_count"`
	}
	env.Do(http.MethodGet, "/cart", nil, token).Decode(t, &cart)
	assert.Zero(t, cart.ItemCount)

	msg, ok := env.Mail.Last("buyer@example.com")
	require.True(t, ok)
	assert.Contains(t, msg.Text, order.OrderNumber)

	assert.Equal(t, http.StatusBadRequest, env.Do(http.MethodPost, confirmPath, nil, token).Code)
	assert.Equal(t, http.StatusBadRequest, env.Do(http.MethodPost, fmt.Sprintf("/order/%d/cancel", order.ID), nil, token).Code)

	resp = env.Do(http.MethodGet, "/order/list?status=PAID", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	var list struct {
		Orders []commerce.Order `json:"orders"`
	}
	resp.Decode(t, &list)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, order.OrderNumber, list.Orders[0].OrderNumber)
}

func TestConfirmRejectsAmountMismatch(t *testing.T) {
	env := testutil.Setup(t)
	gateway := env.NewFakeGateway()
	buyer := env.CreateUser("Buyer", "buyer@example.com", models.RoleUser)
	token := env.Token(buyer)

	course, _ := env.SeedCourse(testutil.CourseOptions{Title: "Go", PriceCents: 2500})
	require.Equal(t, http.StatusCreated, addToCart(env, token, course.ID).Code)

	var order commerce.Order
	resp := env.Do(http.MethodPost, "/order/checkout", nil, token)
	require.Equal(t, http.StatusCreated, resp.Code)
	resp.Decode(t, &order)

	gateway.SetStatus(order.PaymentReference, utils.PaymentSucceeded, 100)
	resp = env.Do(http.MethodPost, fmt.Sprintf("/order/%d/confirm", order.ID), nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var stored commerce.Order
	require.NoError(t, env.DB.First(&stored, order.ID).Error)
	assert.Equal(t, commerce.OrderFailed, stored.Status)

	var enrolled int64
	env.DB.Model(&courseModels.Enrollment{}).Where("user_id = ?", buyer.ID).Count(&enrolled)
	assert.Zero(t, enrolled)
}

func TestCancelAndAdminListOrders(t *testing.T) {
	env := testutil.Setup(t)
	env.NewFakeGateway()
	token := env.Token(env.CreateUser("Buyer", "buyer@example.com", models.RoleUser))
	admin := env.Token(env.CreateUser("Admin", "admin@example.com", models.RoleAdmin))

	course, _ := env.SeedCourse(testutil.CourseOptions{Title: "Go", PriceCents: 2500})
	require.Equal(t, http.StatusCreated, addToCart(env, token, course.ID).Code)

	var order commerce.Order
	resp := env.Do(http.MethodPost, "/order/checkout", nil, token)
	require.Equal(t, http.StatusCreated, resp.Code)
	resp.Decode(t, &order)

	resp = env.Do(http.MethodPost, fmt.Sprintf("/order/%d/cancel", order.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	resp.Decode(t, &order)
	assert.Equal(t, commerce.OrderCancelled, order.Status)

	resp = env.Do(http.MethodGet, fmt.Sprintf("/order/%d", order.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, http.StatusForbidden, env.Do(http.MethodGet, "/admin/orders", nil, token).Code)

	resp = env.Do(http.MethodGet, "/admin/orders?status=CANCELLED&search="+order.OrderNumber, nil, admin)
	require.Equal(t, http.StatusOK, resp.Code)
	var list struct {
		Orders []commerce.Order `json:"orders"`
	}
	resp.Decode(t, &list)
	require.Len(t, list.Orders, 1)
	require.NotNil(t, list.Orders[0].User)
	assert.Equal(t, "buyer@example.com", list.Orders[0].User.Email)
}

// failEnrollmentInserts makes every enrollment insert fail until the
// returned func is called.
func failEnrollmentInserts(t *testing.T, env *testutil.Env) func() {
	const name = "test:fail_enrollment_inserts"
	require.NoError(t, env.DB.Callback().Create().Before("gorm:create").Register(name, func(db *gorm.DB) {
		if db.Statement.Schema != nil && db.Statement.Schema.Table == "enrollments" {
			_ = db.AddError(errors.New("enrollment insert failed"))
		}
	}))
	return func() {
		require.NoError(t, env.DB.Callback().Create().Remove(name))
	}
}

func TestConfirmKeepsOrderPendingWhenEnrollmentFails(t *testing.T) {
	env := testutil.Setup(t)
	gateway := env.NewFakeGateway()
	buyer := env.CreateUser("Buyer", "buyer@example.com", models.RoleUser)
	token := env.Token(buyer)

	course, _ := env.SeedCourse(testutil.CourseOptions{Title: "Go", PriceCents: 2500})
	require.Equal(t, http.StatusCreated, addToCart(env, token, course.ID).Code)

	var order commerce.Order
	resp := env.Do(http.MethodPost, "/order/checkout", nil, token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	resp.Decode(t, &order)
	gateway.SetStatus(order.PaymentReference, utils.PaymentSucceeded, -1)

	restore := failEnrollmentInserts(t, env)
	confirmPath := fmt.Sprintf("/order/%d/confirm", order.ID)
	assert.Equal(t, http.StatusInternalServerError, env.Do(http.MethodPost, confirmPath, nil, token).Code)

	var stored commerce.Order
	require.NoError(t, env.DB.First(&stored, order.ID).Error)
	assert.Equal(t, commerce.OrderPending, stored.Status)
	assert.Nil(t, stored.PaidAt)

	var enrolled, cartItems int64
	env.DB.Model(&courseModels.Enrollment{}).Where("user_id = ?", buyer.ID).Count(&enrolled)
	assert.Zero(t, enrolled)
	env.DB.Model(&commerce.CartItem{}).Count(&cartItems)
	assert.Equal(t, int64(1), cartItems)
	assert.NotContains(t, env.Events.Types(), utils.EventOrderPaid)

	// the buyer can retry once the failure is gone
	restore()
	resp = env.Do(http.MethodPost, confirmPath, nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	require.NoError(t, env.DB.First(&stored, order.ID).Error)
	assert.Equal(t, commerce.OrderPaid, stored.Status)
	env.DB.Model(&courseModels.Enrollment{}).Where("user_id = ?", buyer.ID).Count(&enrolled)
	assert.Equal(t, int64(1), enrolled)
	assert.Contains(t, env.Events.Types(), utils.EventOrderPaid)
}

func TestFreeCheckoutRollsBackWhenEnrollmentFails(t *testing.T) {
	env := testutil.Setup(t)
	buyer := env.CreateUser("Buyer", "buyer@example.com", models.RoleUser)
	token := env.Token(buyer)

	course, _ := env.SeedCourse(testutil.CourseOptions{Title: "Free Go"})
	require.Equal(t, http.StatusCreated, addToCart(env, token, course.ID).Code)

	restore := failEnrollmentInserts(t, env)
	assert.Equal(t, http.StatusInternalServerError, env.Do(http.MethodPost, "/order/checkout", nil, token).Code)
	restore()

	var orders, items, cartItems int64
	env.DB.Model(&commerce.Order{}).Count(&orders)
	env.DB.Model(&commerce.OrderItem{}).Count(&items)
	env.DB.Model(&commerce.CartItem{}).Count(&cartItems)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Equal(t, int64(1), cartItems)
	assert.Empty(t, env.Mail.Sent())

	resp := env.Do(http.MethodPost, "/order/checkout", nil, token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
}

func TestInactiveCourseCannotBeBought(t *testing.T) {
	env := testutil.Setup(t)
	env.NewFakeGateway()
	buyer := env.CreateUser("Buyer", "buyer@example.com", models.RoleUser)
	token := env.Token(buyer)

	course, _ := env.SeedCourse(testutil.CourseOptions{Title: "Go", PriceCents: 2500})
	retired, _ := env.SeedCourse(testutil.CourseOptions{Title: "Retired", PriceCents: 900})
	require.NoError(t, env.DB.Model(&retired).Update("status", courseModels.StatusInactive).Error)

	assert.Equal(t, http.StatusNotFound, addToCart(env, token, retired.ID).Code)

	require.Equal(t, http.StatusCreated, addToCart(env, token, course.ID).Code)
	require.NoError(t, env.DB.Model(&course).Update("status", courseModels.StatusInactive).Error)

	resp := env.Do(http.MethodPost, "/order/checkout", nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Your cart is empty!", resp.Message)

	var orders int64
	env.DB.Model(&commerce.Order{}).Count(&orders)
	assert.Zero(t, orders)
}
