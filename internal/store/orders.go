package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/yerin/go-cart-store/internal/database"
	"github.com/yerin/go-cart-store/internal/models"
)

type PlaceOrderRequest struct {
	Items      []OrderItemRequest
	SpendPoint int64
}

type OrderItemRequest struct {
	ProductID int64
	Quantity  int
}

// resolvedCartItem is a cart row locked inside the placement transaction,
// joined with the product fields that get frozen into the order.
type resolvedCartItem struct {
	CartItemID   int64
	CartQuantity int
	Name         string
	Price        models.Price
	ImageURL     string
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s", uuid.NewString())
}

// buildOrder assembles the whole order aggregate in memory: quantity checks,
// total computation, point checks, and one snapshot line per cart item.
// resolved[i] corresponds to req.Items[i]. No storage is touched here.
func buildOrder(member *models.Member, resolved []resolvedCartItem, req PlaceOrderRequest) (*models.Order, error) {
	if len(resolved) != len(req.Items) {
		return nil, fmt.Errorf("build order: %d cart items resolved for %d requested", len(resolved), len(req.Items))
	}

	var totalPrice models.Price
	items := make([]models.OrderItem, 0, len(resolved))

	for i, requested := range req.Items {
		cartItem := resolved[i]

		// Partial consumption is unsupported: the whole cart item is
		// ordered and removed, so the quantities must match exactly.
		if requested.Quantity < 1 || requested.Quantity != cartItem.CartQuantity {
			return nil, database.ErrInvalidQuantity
		}

		totalPrice = totalPrice.Add(cartItem.Price.MulQuantity(requested.Quantity))

		items = append(items, models.OrderItem{
			Name:     cartItem.Name,
			Price:    cartItem.Price,
			ImageURL: cartItem.ImageURL,
			Quantity: requested.Quantity,
		})
	}

	spendPoint, err := models.NewPriceFromInt(req.SpendPoint)
	if err != nil {
		return nil, database.ErrInvalidSpendPoint
	}
	if totalPrice.LessThan(spendPoint) {
		return nil, database.ErrInvalidSpendPoint
	}
	if req.SpendPoint > member.Point {
		return nil, database.ErrInsufficientPoint
	}

	spendPrice, err := totalPrice.Sub(spendPoint)
	if err != nil {
		return nil, fmt.Errorf("compute spend price: %w", err)
	}

	return &models.Order{
		MemberID:    member.ID,
		OrderNumber: generateOrderNumber(),
		TotalPrice:  totalPrice,
		SpendPoint:  req.SpendPoint,
		SpendPrice:  spendPrice,
		Items:       items,
	}, nil
}

// PlaceOrder converts the requested cart items of a member into an order:
// order + item snapshots inserted, consumed cart rows deleted, points
// debited, all in one serializable transaction. Validation failures roll
// everything back, so no partial state is ever observable.
func PlaceOrder(ctx context.Context, db *sql.DB, memberID int64, req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("place order: no items requested")
	}

	// A product maps to exactly one cart row, so a repeated product id would
	// resolve the same row twice and double-count it. Reject it up front.
	seen := make(map[int64]struct{}, len(req.Items))
	for _, item := range req.Items {
		if _, dup := seen[item.ProductID]; dup {
			return nil, database.ErrDuplicateOrderItem
		}
		seen[item.ProductID] = struct{}{}
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		member, err := lockMember(ctx, tx, memberID)
		if err != nil {
			return err
		}

		resolved := make([]resolvedCartItem, 0, len(req.Items))
		for _, item := range req.Items {
			var rc resolvedCartItem
			err := tx.QueryRowContext(ctx,
				`SELECT ci.id, ci.quantity, p.name, p.price, p.image_url
				 FROM cart_items ci
				 JOIN products p ON p.id = ci.product_id
				 WHERE ci.member_id = $1 AND ci.product_id = $2
				 FOR UPDATE OF ci`,
				memberID, item.ProductID).Scan(
				&rc.CartItemID,
				&rc.CartQuantity,
				&rc.Name,
				&rc.Price,
				&rc.ImageURL,
			)
			if err != nil {
				if err == sql.ErrNoRows {
					return database.ErrOrderItemNotFound
				}
				return fmt.Errorf("lock cart item for product %d: %w", item.ProductID, err)
			}
			resolved = append(resolved, rc)
		}

		built, err := buildOrder(member, resolved, req)
		if err != nil {
			return err
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (member_id, order_number, total_price, spend_point, spend_price, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())
			 RETURNING id, created_at`,
			built.MemberID, built.OrderNumber, built.TotalPrice, built.SpendPoint, built.SpendPrice).Scan(
			&built.ID,
			&built.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i := range built.Items {
			built.Items[i].OrderID = built.ID
			err = tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, name, price, image_url, quantity, created_at)
				 VALUES ($1, $2, $3, $4, $5, NOW())
				 RETURNING id`,
				built.ID, built.Items[i].Name, built.Items[i].Price, built.Items[i].ImageURL, built.Items[i].Quantity).Scan(
				&built.Items[i].ID,
			)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		for _, rc := range resolved {
			result, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, rc.CartItemID)
			if err != nil {
				return fmt.Errorf("delete cart item %d: %w", rc.CartItemID, err)
			}

			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("get rows affected: %w", err)
			}
			if rowsAffected == 0 {
				return fmt.Errorf("cart item %d vanished during placement", rc.CartItemID)
			}
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE members
			 SET point = point - $1,
			     updated_at = NOW()
			 WHERE id = $2
			   AND point >= $1`,
			built.SpendPoint, memberID)
		if err != nil {
			return fmt.Errorf("debit points: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return database.ErrInsufficientPoint
		}

		order = built
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func lockMember(ctx context.Context, tx *sql.Tx, memberID int64) (*models.Member, error) {
	member := &models.Member{}

	err := tx.QueryRowContext(ctx,
		`SELECT id, email, point
		 FROM members
		 WHERE id = $1
		 FOR UPDATE`,
		memberID).Scan(
		&member.ID,
		&member.Email,
		&member.Point,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrMemberNotFound
		}
		return nil, fmt.Errorf("lock member: %w", err)
	}

	return member, nil
}

// ListOrders returns one summary per order of the member, most recent first.
// The representative name and thumbnail come from the order's first item.
func ListOrders(ctx context.Context, db *sql.DB, memberID int64) ([]models.OrderSummary, error) {
	query := `
		SELECT o.id, first_item.name, first_item.image_url, totals.total_count, o.spend_price, o.created_at
		FROM orders o
		JOIN LATERAL (
			SELECT name, image_url
			FROM order_items
			WHERE order_id = o.id
			ORDER BY id
			LIMIT 1
		) first_item ON true
		JOIN LATERAL (
			SELECT COALESCE(SUM(quantity), 0) AS total_count
			FROM order_items
			WHERE order_id = o.id
		) totals ON true
		WHERE o.member_id = $1
		ORDER BY o.created_at DESC, o.id DESC`

	rows, err := db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var summaries []models.OrderSummary
	for rows.Next() {
		var summary models.OrderSummary
		err := rows.Scan(
			&summary.OrderID,
			&summary.FirstProductName,
			&summary.Thumbnail,
			&summary.TotalCount,
			&summary.SpendPrice,
			&summary.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return summaries, nil
}

// GetOrderDetail loads a single order with its item snapshots. Orders that
// exist but belong to another member are rejected, not leaked.
func GetOrderDetail(ctx context.Context, db *sql.DB, memberID, orderID int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT id, member_id, order_number, total_price, spend_point, spend_price, created_at
		FROM orders
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID,
		&order.MemberID,
		&order.OrderNumber,
		&order.TotalPrice,
		&order.SpendPoint,
		&order.SpendPrice,
		&order.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if order.MemberID != memberID {
		return nil, database.ErrForbidden
	}

	itemsQuery := `
		SELECT id, order_id, name, price, image_url, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := db.QueryContext(ctx, itemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.Name,
			&item.Price,
			&item.ImageURL,
			&item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	order.Items = items

	return order, nil
}
