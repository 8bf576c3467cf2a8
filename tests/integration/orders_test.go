package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yerin/go-cart-store/internal/database"
	"github.com/yerin/go-cart-store/internal/models"
	"github.com/yerin/go-cart-store/internal/store"
)

func TestPlaceOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	member := seedMember(t, db, "apple@example.com", 1000)
	product := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	cartItem := seedCartItem(t, db, member.ID, product.ID, 5)

	order, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 5}},
		SpendPoint: 0,
	})
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}

	if order.ID == 0 {
		t.Error("Order ID should not be 0")
	}
	if !order.TotalPrice.Amount().Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected total 5000, got %s", order.TotalPrice)
	}
	if !order.SpendPrice.Amount().Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected spend price 5000, got %s", order.SpendPrice)
	}

	if _, err := store.GetCartItem(ctx, db, member.ID, cartItem.ID); !errors.Is(err, database.ErrCartItemNotFound) {
		t.Errorf("Expected consumed cart item to be gone, got: %v", err)
	}

	memberAfter, err := store.GetMember(ctx, db, member.ID)
	if err != nil {
		t.Fatalf("Get member: %v", err)
	}
	if memberAfter.Point != 1000 {
		t.Errorf("Expected point unchanged at 1000, got %d", memberAfter.Point)
	}
}

func TestPlaceOrderWithPoints(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	member := seedMember(t, db, "points@example.com", 1000)
	product := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	seedCartItem(t, db, member.ID, product.ID, 5)

	order, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 5}},
		SpendPoint: 500,
	})
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}

	if !order.TotalPrice.Amount().Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected total 5000, got %s", order.TotalPrice)
	}
	if order.SpendPoint != 500 {
		t.Errorf("Expected spend point 500, got %d", order.SpendPoint)
	}
	if !order.SpendPrice.Amount().Equal(decimal.NewFromInt(4500)) {
		t.Errorf("Expected spend price 4500, got %s", order.SpendPrice)
	}

	memberAfter, err := store.GetMember(ctx, db, member.ID)
	if err != nil {
		t.Fatalf("Get member: %v", err)
	}
	if memberAfter.Point != 500 {
		t.Errorf("Expected point 500 after debit, got %d", memberAfter.Point)
	}
}

func TestPlaceOrderProductNotInCart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	member := seedMember(t, db, "emptycart@example.com", 1000)
	inCart := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	notInCart := seedProduct(t, db, "banana", 300, "http://image.com/banana.png")
	cartItem := seedCartItem(t, db, member.ID, inCart.ID, 2)

	_, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
		Items:      []store.OrderItemRequest{{ProductID: notInCart.ID, Quantity: 1}},
		SpendPoint: 0,
	})
	if !errors.Is(err, database.ErrOrderItemNotFound) {
		t.Fatalf("Expected order item not found, got: %v", err)
	}

	// No mutation: cart and points untouched.
	if _, err := store.GetCartItem(ctx, db, member.ID, cartItem.ID); err != nil {
		t.Errorf("Cart item should remain: %v", err)
	}
	memberAfter, err := store.GetMember(ctx, db, member.ID)
	if err != nil {
		t.Fatalf("Get member: %v", err)
	}
	if memberAfter.Point != 1000 {
		t.Errorf("Expected point unchanged at 1000, got %d", memberAfter.Point)
	}
}

func TestPlaceOrderAnotherMembersCartItem(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	owner := seedMember(t, db, "owner@example.com", 1000)
	other := seedMember(t, db, "other@example.com", 1000)
	product := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	ownerItem := seedCartItem(t, db, owner.ID, product.ID, 5)

	_, err := store.PlaceOrder(ctx, db, other.ID, store.PlaceOrderRequest{
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 5}},
		SpendPoint: 0,
	})
	if !errors.Is(err, database.ErrOrderItemNotFound) {
		t.Fatalf("Expected order item not found for non-owner, got: %v", err)
	}

	if _, err := store.GetCartItem(ctx, db, owner.ID, ownerItem.ID); err != nil {
		t.Errorf("Owner's cart item should remain: %v", err)
	}
}

func TestPlaceOrderQuantityMustMatchCart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	member := seedMember(t, db, "partial@example.com", 1000)
	product := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	cartItem := seedCartItem(t, db, member.ID, product.ID, 5)

	// Partial consumption is unsupported: a smaller quantity than the cart
	// row holds is rejected, not prorated.
	for _, quantity := range []int{3, 7} {
		_, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
			Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: quantity}},
			SpendPoint: 0,
		})
		if !errors.Is(err, database.ErrInvalidQuantity) {
			t.Errorf("Quantity %d: expected invalid quantity, got: %v", quantity, err)
		}
	}

	if _, err := store.GetCartItem(ctx, db, member.ID, cartItem.ID); err != nil {
		t.Errorf("Cart item should remain: %v", err)
	}
}

func TestPlaceOrderDuplicateProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	member := seedMember(t, db, "twice@example.com", 1000)
	product := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	cartItem := seedCartItem(t, db, member.ID, product.ID, 2)

	// The same product twice would resolve the same cart row twice.
	_, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
		Items: []store.OrderItemRequest{
			{ProductID: product.ID, Quantity: 2},
			{ProductID: product.ID, Quantity: 2},
		},
		SpendPoint: 0,
	})
	if !errors.Is(err, database.ErrDuplicateOrderItem) {
		t.Fatalf("Expected duplicate order item, got: %v", err)
	}

	if _, err := store.GetCartItem(ctx, db, member.ID, cartItem.ID); err != nil {
		t.Errorf("Cart item should remain: %v", err)
	}
	summaries, err := store.ListOrders(ctx, db, member.ID)
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("Expected no orders, got %d", len(summaries))
	}
}

func TestPlaceOrderInsufficientPoint(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	member := seedMember(t, db, "poor@example.com", 100)
	product := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	cartItem := seedCartItem(t, db, member.ID, product.ID, 1)

	_, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
		SpendPoint: 500,
	})
	if !errors.Is(err, database.ErrInsufficientPoint) {
		t.Fatalf("Expected insufficient point, got: %v", err)
	}

	if _, err := store.GetCartItem(ctx, db, member.ID, cartItem.ID); err != nil {
		t.Errorf("Cart item should remain: %v", err)
	}
	memberAfter, err := store.GetMember(ctx, db, member.ID)
	if err != nil {
		t.Fatalf("Get member: %v", err)
	}
	if memberAfter.Point != 100 {
		t.Errorf("Expected point unchanged at 100, got %d", memberAfter.Point)
	}
}

func TestPlaceOrderSpendPointExceedsTotal(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	member := seedMember(t, db, "rich@example.com", 100000)
	product := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	seedCartItem(t, db, member.ID, product.ID, 1)

	_, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
		SpendPoint: 1001,
	})
	if !errors.Is(err, database.ErrInvalidSpendPoint) {
		t.Fatalf("Expected invalid spend point, got: %v", err)
	}
}

func TestOrderItemSnapshotSurvivesProductEdits(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	member := seedMember(t, db, "snapshot@example.com", 1000)
	product := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	seedCartItem(t, db, member.ID, product.ID, 2)

	order, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
		SpendPoint: 0,
	})
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}

	newPrice, err := models.NewPriceFromInt(9999)
	if err != nil {
		t.Fatalf("New price: %v", err)
	}
	if _, err := store.UpdateProduct(ctx, db, product.ID, "golden apple", newPrice, "http://image.com/golden.png"); err != nil {
		t.Fatalf("Update product: %v", err)
	}

	detail, err := store.GetOrderDetail(ctx, db, member.ID, order.ID)
	if err != nil {
		t.Fatalf("Get order detail: %v", err)
	}

	if len(detail.Items) != 1 {
		t.Fatalf("Expected 1 order item, got %d", len(detail.Items))
	}
	item := detail.Items[0]
	if item.Name != "apple" {
		t.Errorf("Snapshot name changed: got %s", item.Name)
	}
	if !item.Price.Amount().Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Snapshot price changed: got %s", item.Price)
	}
	if item.ImageURL != "http://image.com/apple.png" {
		t.Errorf("Snapshot image changed: got %s", item.ImageURL)
	}
}

func TestGetOrderDetail(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	member := seedMember(t, db, "detail@example.com", 1000)
	product := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	seedCartItem(t, db, member.ID, product.ID, 5)

	placed, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 5}},
		SpendPoint: 500,
	})
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}

	detail, err := store.GetOrderDetail(ctx, db, member.ID, placed.ID)
	if err != nil {
		t.Fatalf("Get order detail: %v", err)
	}

	if !detail.TotalPrice.Amount().Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected total 5000, got %s", detail.TotalPrice)
	}
	if detail.SpendPoint != 500 {
		t.Errorf("Expected spend point 500, got %d", detail.SpendPoint)
	}
	if !detail.SpendPrice.Amount().Equal(decimal.NewFromInt(4500)) {
		t.Errorf("Expected spend price 4500, got %s", detail.SpendPrice)
	}
	if len(detail.Items) != 1 || detail.Items[0].Quantity != 5 {
		t.Errorf("Unexpected order items: %+v", detail.Items)
	}
}

func TestGetOrderDetailOwnership(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	owner := seedMember(t, db, "orderowner@example.com", 1000)
	intruder := seedMember(t, db, "intruder@example.com", 1000)
	product := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	seedCartItem(t, db, owner.ID, product.ID, 1)

	placed, err := store.PlaceOrder(ctx, db, owner.ID, store.PlaceOrderRequest{
		Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
		SpendPoint: 0,
	})
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}

	if _, err := store.GetOrderDetail(ctx, db, intruder.ID, placed.ID); !errors.Is(err, database.ErrForbidden) {
		t.Errorf("Expected forbidden for another member's order, got: %v", err)
	}

	if _, err := store.GetOrderDetail(ctx, db, owner.ID, placed.ID+1000); !errors.Is(err, database.ErrOrderNotFound) {
		t.Errorf("Expected order not found, got: %v", err)
	}
}

func TestListOrdersMostRecentFirst(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	member := seedMember(t, db, "history@example.com", 1000)
	apple := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	banana := seedProduct(t, db, "banana", 300, "http://image.com/banana.png")

	seedCartItem(t, db, member.ID, apple.ID, 2)
	first, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
		Items:      []store.OrderItemRequest{{ProductID: apple.ID, Quantity: 2}},
		SpendPoint: 0,
	})
	if err != nil {
		t.Fatalf("Place first order: %v", err)
	}

	seedCartItem(t, db, member.ID, banana.ID, 3)
	second, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
		Items:      []store.OrderItemRequest{{ProductID: banana.ID, Quantity: 3}},
		SpendPoint: 0,
	})
	if err != nil {
		t.Fatalf("Place second order: %v", err)
	}

	summaries, err := store.ListOrders(ctx, db, member.ID)
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}

	if len(summaries) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].OrderID != second.ID || summaries[1].OrderID != first.ID {
		t.Errorf("Expected most recent first, got [%d, %d]", summaries[0].OrderID, summaries[1].OrderID)
	}
	if summaries[0].FirstProductName != "banana" {
		t.Errorf("Expected first product banana, got %s", summaries[0].FirstProductName)
	}
	if summaries[0].Thumbnail != "http://image.com/banana.png" {
		t.Errorf("Unexpected thumbnail %s", summaries[0].Thumbnail)
	}
	if summaries[0].TotalCount != 3 {
		t.Errorf("Expected total count 3, got %d", summaries[0].TotalCount)
	}
	if summaries[1].TotalCount != 2 {
		t.Errorf("Expected total count 2, got %d", summaries[1].TotalCount)
	}
}

func TestConcurrentPlacementSameCart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	member := seedMember(t, db, "race@example.com", 1000)
	product := seedProduct(t, db, "apple", 1000, "http://image.com/apple.png")
	seedCartItem(t, db, member.ID, product.ID, 2)

	concurrency := 2
	var wg sync.WaitGroup
	results := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := store.PlaceOrder(ctx, db, member.ID, store.PlaceOrderRequest{
				Items:      []store.OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
				SpendPoint: 100,
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case errors.Is(err, database.ErrOrderItemNotFound):
			// Loser: the cart item was consumed by the winner.
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if successCount != 1 {
		t.Errorf("Expected exactly 1 successful placement, got %d", successCount)
	}

	memberAfter, err := store.GetMember(ctx, db, member.ID)
	if err != nil {
		t.Fatalf("Get member: %v", err)
	}
	if memberAfter.Point != 900 {
		t.Errorf("Expected points debited exactly once (900), got %d", memberAfter.Point)
	}

	summaries, err := store.ListOrders(ctx, db, member.ID)
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("Expected exactly 1 order, got %d", len(summaries))
	}
}
