package main

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/yerin/go-cart-store/internal/database"
	"github.com/yerin/go-cart-store/internal/models"
	"github.com/yerin/go-cart-store/internal/store"
)

// authedHandler receives the resolved member explicitly. Handlers never read
// the requester from ambient state.
type authedHandler func(w http.ResponseWriter, r *http.Request, member *models.Member)

// basicAuth resolves HTTP Basic credentials to a member before the handler
// runs. A malformed header is a request-shape problem (400); credentials
// that don't verify are 401.
func basicAuth(db *sql.DB, next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok {
			respondFieldErrors(w, map[string]string{
				"authorization": "basic auth credentials must be included",
			})
			return
		}

		member, err := store.GetMemberByEmail(r.Context(), db, email)
		if err != nil {
			if errors.Is(err, database.ErrMemberNotFound) {
				respondError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if !store.VerifyMemberPassword(member, password) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		next(w, r, member)
	}
}
