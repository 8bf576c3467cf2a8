package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yerin/go-cart-store/internal/config"
	"github.com/yerin/go-cart-store/internal/database"
	"github.com/yerin/go-cart-store/internal/events"
	"github.com/yerin/go-cart-store/internal/metrics"
	"github.com/yerin/go-cart-store/internal/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	var publisher *events.Publisher
	if cfg.RabbitMQ.URL != "" {
		publisher, err = events.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.OrderQueue)
		if err != nil {
			log.Fatalf("Connect to rabbitmq: %v", err)
		}
		defer publisher.Close()
		log.Printf("Order events will be published to %s", cfg.RabbitMQ.OrderQueue)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/members", handleMembers(db, cfg.Auth.BcryptCost))
	mux.HandleFunc("/products", handleProducts(db))
	mux.HandleFunc("/products/", handleProductByID(db))
	mux.HandleFunc("/cart-items", basicAuth(db, handleCartItems(db)))
	mux.HandleFunc("/cart-items/", basicAuth(db, handleCartItemByID(db)))
	mux.HandleFunc("/orders", basicAuth(db, handleOrders(db, publisher)))
	mux.HandleFunc("/orders/", basicAuth(db, handleOrderByID(db)))
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      metrics.Middleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondFieldErrors(w http.ResponseWriter, fields map[string]string) {
	respondJSON(w, http.StatusBadRequest, map[string]map[string]string{"errors": fields})
}

func respondStoreError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, database.ErrMemberNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrCartItemNotFound),
		errors.Is(err, database.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, database.ErrOrderItemNotFound),
		errors.Is(err, database.ErrInvalidQuantity),
		errors.Is(err, database.ErrInvalidSpendPoint),
		errors.Is(err, database.ErrInsufficientPoint),
		errors.Is(err, database.ErrDuplicateCartItem),
		errors.Is(err, database.ErrDuplicateOrderItem),
		errors.Is(err, models.ErrNegativePrice):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
