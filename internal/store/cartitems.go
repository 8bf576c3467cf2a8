package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yerin/go-cart-store/internal/database"
	"github.com/yerin/go-cart-store/internal/models"
)

// AddCartItem puts a product into the member's cart. A member holds at most
// one cart row per product; adding the same product again is rejected.
func AddCartItem(ctx context.Context, db *sql.DB, memberID, productID int64, quantity int) (*models.CartItem, error) {
	product, err := GetProduct(ctx, db, productID)
	if err != nil {
		return nil, err
	}

	item := &models.CartItem{MemberID: memberID, Product: *product}

	query := `
		INSERT INTO cart_items (member_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, quantity, created_at`

	err = db.QueryRowContext(ctx, query, memberID, productID, quantity).Scan(
		&item.ID,
		&item.Quantity,
		&item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, database.ErrDuplicateCartItem
		}
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return item, nil
}

func GetCartItem(ctx context.Context, db *sql.DB, memberID, cartItemID int64) (*models.CartItem, error) {
	item := &models.CartItem{}

	query := `
		SELECT ci.id, ci.member_id, ci.quantity, ci.created_at,
		       p.id, p.name, p.price, p.image_url, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $1`

	err := db.QueryRowContext(ctx, query, cartItemID).Scan(
		&item.ID,
		&item.MemberID,
		&item.Quantity,
		&item.CreatedAt,
		&item.Product.ID,
		&item.Product.Name,
		&item.Product.Price,
		&item.Product.ImageURL,
		&item.Product.CreatedAt,
		&item.Product.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}

	if item.MemberID != memberID {
		return nil, database.ErrForbidden
	}

	return item, nil
}

func ListCartItems(ctx context.Context, db *sql.DB, memberID int64) ([]models.CartItem, error) {
	query := `
		SELECT ci.id, ci.member_id, ci.quantity, ci.created_at,
		       p.id, p.name, p.price, p.image_url, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.member_id = $1
		ORDER BY ci.created_at, ci.id`

	rows, err := db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		err := rows.Scan(
			&item.ID,
			&item.MemberID,
			&item.Quantity,
			&item.CreatedAt,
			&item.Product.ID,
			&item.Product.Name,
			&item.Product.Price,
			&item.Product.ImageURL,
			&item.Product.CreatedAt,
			&item.Product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// lockCartItemOwner locks the cart row and enforces ownership inside the
// caller's transaction, so a concurrent order placement cannot slip between
// the check and the mutation.
func lockCartItemOwner(ctx context.Context, tx *sql.Tx, memberID, cartItemID int64) error {
	var ownerID int64
	err := tx.QueryRowContext(ctx,
		`SELECT member_id FROM cart_items WHERE id = $1 FOR UPDATE`,
		cartItemID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return database.ErrCartItemNotFound
		}
		return fmt.Errorf("lock cart item: %w", err)
	}

	if ownerID != memberID {
		return database.ErrForbidden
	}

	return nil
}

func UpdateCartItemQuantity(ctx context.Context, db *sql.DB, memberID, cartItemID int64, quantity int) (*models.CartItem, error) {
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := lockCartItemOwner(ctx, tx, memberID, cartItemID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = $1 WHERE id = $2`,
			quantity, cartItemID); err != nil {
			return fmt.Errorf("update cart item quantity: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetCartItem(ctx, db, memberID, cartItemID)
}

func DeleteCartItem(ctx context.Context, db *sql.DB, memberID, cartItemID int64) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := lockCartItemOwner(ctx, tx, memberID, cartItemID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, cartItemID); err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}

		return nil
	})
}
