package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001":
			return ErrorClassSerialization
		case "40P01":
			return ErrorClassDeadlock
		case "55P03":
			return ErrorClassTransient
		case "23505", "23503", "23502", "23514":
			return ErrorClassPermanent
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassPermanent
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

// Domain errors surfaced by the store layer. All of them abort the
// surrounding transaction before any mutation is committed.
var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound  = errors.New("requested product is not in the member's cart")
	ErrForbidden          = errors.New("resource belongs to another member")
	ErrInvalidQuantity    = errors.New("order quantity must match the cart item quantity")
	ErrInvalidSpendPoint  = errors.New("spend point exceeds the order total")
	ErrInsufficientPoint  = errors.New("member does not have enough points")
	ErrDuplicateCartItem  = errors.New("product is already in the cart")
	ErrDuplicateOrderItem = errors.New("order requests the same product more than once")
)
