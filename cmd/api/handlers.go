package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/yerin/go-cart-store/internal/models"
	"github.com/yerin/go-cart-store/internal/store"
)

func handleMembers(db *sql.DB, bcryptCost int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
				Point    int64  `json:"point"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if req.Email == "" || req.Password == "" {
				respondFieldErrors(w, map[string]string{
					"email":    "email and password must be included",
					"password": "email and password must be included",
				})
				return
			}

			member, err := store.CreateMember(ctx, db, req.Email, req.Password, req.Point, bcryptCost)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, member)

		case http.MethodGet:
			page, pageSize := pageParams(r)

			result, err := store.ListMembers(ctx, db, page, pageSize)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			product, err := decodeProduct(r)
			if err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}

			created, err := store.CreateProduct(ctx, db, product.Name, product.Price, product.ImageURL)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, created)

		case http.MethodGet:
			page, pageSize := pageParams(r)

			result, err := store.ListProducts(ctx, db, page, pageSize)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleProductByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := pathID(r, "/products/")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}

		switch r.Method {
		case http.MethodGet:
			product, err := store.GetProduct(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, product)

		case http.MethodPut:
			product, err := decodeProduct(r)
			if err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}

			updated, err := store.UpdateProduct(ctx, db, id, product.Name, product.Price, product.ImageURL)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusOK, updated)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func decodeProduct(r *http.Request) (*models.Product, error) {
	var req struct {
		Name     string          `json:"name"`
		Price    decimal.Decimal `json:"price"`
		ImageURL string          `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}

	price, err := models.NewPrice(req.Price)
	if err != nil {
		return nil, err
	}

	return &models.Product{Name: req.Name, Price: price, ImageURL: req.ImageURL}, nil
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func pathID(r *http.Request, prefix string) (int64, error) {
	return strconv.ParseInt(r.URL.Path[len(prefix):], 10, 64)
}
