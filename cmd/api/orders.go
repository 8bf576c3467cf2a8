package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/yerin/go-cart-store/internal/events"
	"github.com/yerin/go-cart-store/internal/metrics"
	"github.com/yerin/go-cart-store/internal/models"
	"github.com/yerin/go-cart-store/internal/store"
)

func handleCartItems(db *sql.DB) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, member *models.Member) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				ProductID *int64 `json:"productId"`
				Quantity  *int   `json:"quantity"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if req.ProductID == nil || *req.ProductID <= 0 {
				respondFieldErrors(w, map[string]string{"productId": "product id must be positive"})
				return
			}

			quantity := 1
			if req.Quantity != nil {
				if *req.Quantity < 1 {
					respondFieldErrors(w, map[string]string{"quantity": "quantity must not be zero or negative"})
					return
				}
				quantity = *req.Quantity
			}

			item, err := store.AddCartItem(ctx, db, member.ID, *req.ProductID, quantity)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, item)

		case http.MethodGet:
			items, err := store.ListCartItems(ctx, db, member.ID)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, items)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCartItemByID(db *sql.DB) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, member *models.Member) {
		ctx := r.Context()

		id, err := pathID(r, "/cart-items/")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid cart item ID")
			return
		}

		switch r.Method {
		case http.MethodPatch:
			var req struct {
				Quantity *int `json:"quantity"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if req.Quantity == nil || *req.Quantity < 1 {
				respondFieldErrors(w, map[string]string{"quantity": "quantity must not be zero or negative"})
				return
			}

			item, err := store.UpdateCartItemQuantity(ctx, db, member.ID, id, *req.Quantity)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, item)

		case http.MethodDelete:
			if err := store.DeleteCartItem(ctx, db, member.ID, id); err != nil {
				respondStoreError(w, err)
				return
			}

			w.WriteHeader(http.StatusNoContent)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleOrders(db *sql.DB, publisher *events.Publisher) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, member *models.Member) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var payload orderPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			if fields := validateOrderPayload(payload); fields != nil {
				respondFieldErrors(w, fields)
				return
			}

			req := store.PlaceOrderRequest{SpendPoint: *payload.SpendPoint}
			for _, item := range payload.OrderItems {
				req.Items = append(req.Items, store.OrderItemRequest{
					ProductID: *item.ProductID,
					Quantity:  *item.Quantity,
				})
			}

			order, err := store.PlaceOrder(ctx, db, member.ID, req)
			metrics.RecordOrderOperation("place", err == nil)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			// Best effort: the order is committed; a publish failure
			// must not turn the response into an error.
			if publisher != nil {
				if err := publisher.PublishOrderPlaced(ctx, order); err != nil {
					log.Printf("Publish OrderPlaced for order %d: %v", order.ID, err)
				}
			}

			respondJSON(w, http.StatusCreated, map[string]interface{}{
				"message": "order placed successfully",
				"orderId": order.ID,
			})

		case http.MethodGet:
			summaries, err := store.ListOrders(ctx, db, member.ID)
			metrics.RecordOrderOperation("list", err == nil)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			if summaries == nil {
				summaries = []models.OrderSummary{}
			}

			respondJSON(w, http.StatusOK, summaries)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleOrderByID(db *sql.DB) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, member *models.Member) {
		ctx := r.Context()

		id, err := pathID(r, "/orders/")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid order ID")
			return
		}

		order, err := store.GetOrderDetail(ctx, db, member.ID, id)
		metrics.RecordOrderOperation("detail", err == nil)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, order)
	}
}
