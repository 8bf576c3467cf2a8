package main

import "fmt"

type orderItemPayload struct {
	ProductID *int64 `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

type orderPayload struct {
	OrderItems []orderItemPayload `json:"orderItems"`
	SpendPoint *int64             `json:"spendPoint"`
}

// validateOrderPayload checks request shape only; the business rules
// (cart membership, quantity match, point bounds) live in the store.
func validateOrderPayload(p orderPayload) map[string]string {
	fields := make(map[string]string)

	if len(p.OrderItems) == 0 {
		fields["orderItems"] = "at least one order item must be included"
	}

	seen := make(map[int64]struct{}, len(p.OrderItems))
	for i, item := range p.OrderItems {
		switch {
		case item.ProductID == nil:
			fields[fmt.Sprintf("orderItems[%d].productId", i)] = "product id must be included"
		case *item.ProductID <= 0:
			fields[fmt.Sprintf("orderItems[%d].productId", i)] = "product id must not be zero or negative"
		default:
			if _, dup := seen[*item.ProductID]; dup {
				fields[fmt.Sprintf("orderItems[%d].productId", i)] = "product id must not be duplicated"
			}
			seen[*item.ProductID] = struct{}{}
		}

		switch {
		case item.Quantity == nil:
			fields[fmt.Sprintf("orderItems[%d].quantity", i)] = "quantity must be included"
		case *item.Quantity <= 0:
			fields[fmt.Sprintf("orderItems[%d].quantity", i)] = "quantity must not be zero or negative"
		}
	}

	switch {
	case p.SpendPoint == nil:
		fields["spendPoint"] = "spend point must be included"
	case *p.SpendPoint < 0:
		fields["spendPoint"] = "spend point must not be negative"
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}
