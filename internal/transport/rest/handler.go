// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	perrors "github.com/avazquez/product-service/internal/errors"
	"github.com/avazquez/product-service/internal/service"
	"github.com/avazquez/product-service/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Pagination defaults for the catalog listing. An absent limit lists the
// whole catalog.
const (
	defaultOffset = 0
	noLimit       = 0
)

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the product API with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the product service.
// adminOnly guards the mutating catalog endpoints.
func (h *Handler) RegisterRoutes(r *chi.Mux, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Get("/batch", h.FindByIDs)
		r.With(adminOnly).Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.With(adminOnly).Put("/", h.Update)
			r.Get("/stock", h.Stock)
			r.Put("/reduce-stock", h.ReduceStock)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindAll retrieves the catalog. An empty catalog responds 404, not an empty list.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	limit, ok := web.ParseOptionalGt(r, w, mLogger, "limit", 0, noLimit)
	if !ok {
		return
	}
	offset, ok := web.ParseOptionalGte(r, w, mLogger, "offset", 0, defaultOffset)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to find all products", "limit", limit, "offset", offset)
	list, err := h.service.FindAll(r.Context(), offset, limit)
	if err != nil {
		if errors.Is(err, perrors.ErrNoProducts) {
			web.RespondError(w, mLogger, http.StatusNotFound, "There are no products.")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindByIDs retrieves a batch of products by the comma-separated ids query
// parameter. If any id is unknown the whole lookup responds 404 listing the
// missing ids.
func (h *Handler) FindByIDs(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	rawIDs := r.URL.Query().Get("ids")
	if rawIDs == "" {
		web.RespondError(w, mLogger, http.StatusBadRequest, "ids url parameter is required")
		return
	}
	parts := strings.Split(rawIDs, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid ID: %s", part))
			return
		}
		ids = append(ids, id)
	}

	mLogger.DebugContext(r.Context(), "Received request to find products by ids", "count", len(ids))
	list, err := h.service.FindByIDs(r.Context(), ids)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving products by ids", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Stock returns the current stock level of a product as a bare integer.
func (h *Handler) Stock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	stock, err := h.service.StockByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving stock", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "An error occurred while fetching the product stock.")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, stock)
}

// ReduceStock deducts the quantity query parameter from the product's stock.
func (h *Handler) ReduceStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	quantity, ok := web.ParseValidateGt(r, w, mLogger, "quantity", 0)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to reduce stock", "ID", id, "quantity", quantity)
	if err := h.service.ReduceStock(r.Context(), id, quantity); err != nil {
		switch {
		case errors.Is(err, perrors.ErrProductNotFound):
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		case errors.Is(err, perrors.ErrInsufficientStock), errors.Is(err, perrors.ErrInvalidQuantity):
			mLogger.WarnContext(r.Context(), "Stock reduction rejected", "ID", id, "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		case errors.Is(err, perrors.ErrVersionConflict):
			web.RespondError(w, mLogger, http.StatusConflict, "Product is being modified concurrently, try again")
		default:
			mLogger.ErrorContext(r.Context(), "Error reducing stock", "ID", id, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Error updating stock.")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Stock reduced successfully", "ID", id, "quantity", quantity)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"message": "Stock updated successfully."})
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var productCreateDto service.ProductCreateDto
	if err := json.NewDecoder(r.Body).Decode(&productCreateDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, productCreateDto) {
		return
	}

	newProduct, err := h.service.Create(r.Context(), productCreateDto)
	if err != nil {
		if isValidationErr(err) {
			mLogger.WarnContext(r.Context(), "Product creation rejected", "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", newProduct.ID, "Name", newProduct.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, newProduct)
}

// Update applies a partial update to a product. Responds 201 with the updated
// representation.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var productUpdateDto service.ProductUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&productUpdateDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, productUpdateDto) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, productUpdateDto)
	if err != nil {
		switch {
		case errors.Is(err, perrors.ErrProductNotFound):
			mLogger.WarnContext(r.Context(), "Product not found for update", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		case isValidationErr(err):
			mLogger.WarnContext(r.Context(), "Product update rejected", "ID", id, "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		case errors.Is(err, perrors.ErrVersionConflict):
			web.RespondError(w, mLogger, http.StatusConflict, "Product is being modified concurrently, try again")
		default:
			mLogger.ErrorContext(r.Context(), "Error updating product", "ID", id, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to update product with ID %s", id))
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, updated)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// validateStruct applies the structural DTO constraints (field size bounds).
// Domain rules (presence, price and stock ranges) live in the service.
func (h *Handler) validateStruct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dto any) bool {
	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// isValidationErr reports whether err is one of the domain validation failures
// that map to a 400 response.
func isValidationErr(err error) bool {
	return errors.Is(err, perrors.ErrAllFieldsRequired) ||
		errors.Is(err, perrors.ErrNoFieldsToUpdate) ||
		errors.Is(err, perrors.ErrInvalidPrice) ||
		errors.Is(err, perrors.ErrInvalidStock) ||
		errors.Is(err, perrors.ErrInvalidQuantity)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
