package events

import (
	"time"

	"github.com/yerin/go-cart-store/internal/models"
)

// OrderPlaced is published after an order commits. Line items carry the
// snapshot values, matching what the order history will show.
type OrderPlaced struct {
	EventType   string            `json:"eventType"`
	OrderID     int64             `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	MemberID    int64             `json:"memberId"`
	TotalPrice  models.Price      `json:"totalPrice"`
	SpendPoint  int64             `json:"spendPoint"`
	SpendPrice  models.Price      `json:"spendPrice"`
	Items       []OrderPlacedItem `json:"items"`
	Timestamp   time.Time         `json:"timestamp"`
}

type OrderPlacedItem struct {
	Name     string       `json:"name"`
	Price    models.Price `json:"price"`
	Quantity int          `json:"quantity"`
}

func NewOrderPlaced(order *models.Order) OrderPlaced {
	ev := OrderPlaced{
		EventType:   "OrderPlaced",
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		MemberID:    order.MemberID,
		TotalPrice:  order.TotalPrice,
		SpendPoint:  order.SpendPoint,
		SpendPrice:  order.SpendPrice,
		Timestamp:   time.Now().UTC(),
	}

	for _, item := range order.Items {
		ev.Items = append(ev.Items, OrderPlacedItem{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	return ev
}
