package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/safar/go-shop-admin/internal/auth"
	"github.com/safar/go-shop-admin/internal/database"
	"github.com/safar/go-shop-admin/internal/metrics"
	"github.com/safar/go-shop-admin/internal/models"
	"github.com/safar/go-shop-admin/internal/presence"
	"github.com/safar/go-shop-admin/internal/store"
	"github.com/safar/go-shop-admin/internal/upload"
)

func handleSignup(service *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		owner, err := service.Signup(r.Context(), req.Email, req.Name, req.Password)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, owner)
	}
}

func handleLogin(service *auth.Service, collector *metrics.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		owner, session, err := service.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			collector.RecordSignIn(signInResult(err))
			respondError(w, statusFor(err), err.Error())
			return
		}

		collector.RecordSignIn("ok")
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"token":      session.Token,
			"expires_at": session.ExpiresAt,
			"owner":      owner,
		})
	}
}

func signInResult(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, auth.ErrAuthFailed):
		return "auth_failed"
	case errors.Is(err, auth.ErrNotAuthorized):
		return "not_authorized"
	default:
		return "error"
	}
}

func handleLogout(service *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromContext(r.Context())
		if err := service.SignOut(r.Context(), token); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
	}
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, auth.OwnerFromContext(r.Context()))
	}
}

func handleListProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.OwnerFromContext(r.Context())

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		if pageSize < 1 || pageSize > 100 {
			pageSize = 20
		}

		result, err := store.ListProductsByOwner(r.Context(), db, owner.ID, page, pageSize)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

func handleCreateProduct(db *sql.DB, pipeline *upload.Pipeline, collector *metrics.Collector, maxFileSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.OwnerFromContext(r.Context())

		if err := r.ParseMultipartForm(maxFileSize); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}

		name := r.FormValue("name")
		category := r.FormValue("category")
		description := r.FormValue("description")
		if name == "" || !models.ValidCategory(category) {
			respondError(w, http.StatusBadRequest, "Name and a valid category are required")
			return
		}

		price, err := decimal.NewFromString(r.FormValue("price"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid price")
			return
		}

		fileHeaders := r.MultipartForm.File["images"]
		var imageURLs []string
		if len(fileHeaders) > 0 {
			if pipeline == nil {
				respondError(w, http.StatusServiceUnavailable, "Image uploads are not configured")
				return
			}

			files := make([]upload.File, 0, len(fileHeaders))
			for _, fh := range fileHeaders {
				f, err := fh.Open()
				if err != nil {
					respondError(w, http.StatusBadRequest, "Unreadable image file")
					return
				}
				defer f.Close()
				files = append(files, upload.File{Name: fh.Filename, Content: f})
			}

			imageURLs, err = pipeline.Upload(r.Context(), files, name)
			if err != nil {
				collector.RecordUpload("failed")
				respondError(w, statusFor(err), err.Error())
				return
			}
			collector.RecordUpload("ok")
		}

		product, err := store.CreateProduct(r.Context(), db, store.CreateProductRequest{
			OwnerID:     owner.ID,
			Name:        name,
			Category:    category,
			Price:       price,
			Description: description,
			ImageURLs:   imageURLs,
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, product)
	}
}

func handleGetProduct(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.OwnerFromContext(r.Context())
		id := chi.URLParam(r, "id")

		product, err := store.GetProductForOwner(r.Context(), db, id, owner.ID)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		orders, err := store.ListOrdersByProduct(r.Context(), db, id, owner.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"product": product,
			"orders":  orders,
		})
	}
}

func handleUpdateProduct(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.OwnerFromContext(r.Context())
		id := chi.URLParam(r, "id")

		var req struct {
			Name        string   `json:"name"`
			Category    string   `json:"category"`
			Price       string   `json:"price"`
			Description string   `json:"description"`
			ImageURLs   []string `json:"image_urls"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Name == "" || !models.ValidCategory(req.Category) {
			respondError(w, http.StatusBadRequest, "Name and a valid category are required")
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid price")
			return
		}

		product, err := store.UpdateProduct(r.Context(), db, id, owner.ID, store.UpdateProductRequest{
			Name:        req.Name,
			Category:    req.Category,
			Price:       price,
			Description: req.Description,
			ImageURLs:   req.ImageURLs,
		})
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusOK, product)
	}
}

func handleListOrders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.OwnerFromContext(r.Context())

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit < 1 || limit > 100 {
			limit = 20
		}

		result, err := store.ListOrdersBySeller(r.Context(), db, owner.ID, r.URL.Query().Get("cursor"), limit)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

func handleTransition(db *sql.DB, collector *metrics.Collector, target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.OwnerFromContext(r.Context())
		id := chi.URLParam(r, "id")

		order, err := store.TransitionOrder(r.Context(), db, id, owner.ID, target)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		collector.RecordOrderTransition(target)
		respondJSON(w, http.StatusOK, order)
	}
}

func handleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, auth.OwnerFromContext(r.Context()))
	}
}

func handleUpdateProfile(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.OwnerFromContext(r.Context())

		var req struct {
			Name         string `json:"name"`
			Phone        string `json:"phone"`
			Address      string `json:"address"`
			OpeningHours string `json:"opening_hours"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "Name is required")
			return
		}

		updated, err := store.UpdateOwnerProfile(r.Context(), db, owner.ID, req.Name, req.Phone, req.Address, req.OpeningHours)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusOK, updated)
	}
}

func handleUpdatePayment(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.OwnerFromContext(r.Context())

		var req struct {
			BankName      string `json:"bank_name"`
			AccountName   string `json:"account_name"`
			AccountNumber string `json:"account_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		updated, err := store.UpdateOwnerPayment(r.Context(), db, owner.ID, req.BankName, req.AccountName, req.AccountNumber)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusOK, updated)
	}
}

// handleGetPresence is public: buyers check whether a shop owner is online.
func handleGetPresence(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		record, err := store.GetPresence(r.Context(), db, userID)
		if err != nil {
			if errors.Is(err, database.ErrOwnerNotFound) {
				// No record yet means the owner has never been online.
				respondJSON(w, http.StatusOK, models.Presence{
					UserID: userID,
					State:  models.PresenceOffline,
				})
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, record)
	}
}

func handlePresenceSocket(hub *presence.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.OwnerFromContext(r.Context())
		hub.Serve(w, r, owner.ID)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, upload.ErrUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, database.ErrOwnerNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrOrderNotPending):
		return http.StatusConflict
	case errors.Is(err, database.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrEmailAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
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
