package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/beeboo/storefront/internal/models"
)

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := models.ProductFilter{
		Category:   strings.TrimSpace(query.Get("category")),
		Search:     query.Get("search"),
		Sort:       models.ProductSort(query.Get("sort")),
		StartAfter: strings.TrimSpace(query.Get("startAfter")),
		EndBefore:  strings.TrimSpace(query.Get("endBefore")),
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(ctx, w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		filter.Limit = limit
	}

	page, err := h.catalogService.ListProducts(ctx, filter)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list products")
		return
	}

	writeJSON(ctx, w, http.StatusOK, page)
}

func (h *Handlers) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	products, err := h.catalogService.FeaturedProducts(ctx, limit)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list featured products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, err := h.catalogService.GetProduct(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to get product")
		return
	}

	writeJSON(ctx, w, http.StatusOK, product)
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.catalogService.ListCategories(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list categories")
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var product models.Product
	if err := decodeJSON(w, r, &product); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	product.ID = ""

	created, err := h.catalogService.CreateProduct(ctx, &product)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to create product")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, created)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var product models.Product
	if err := decodeJSON(w, r, &product); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	product.ID = mux.Vars(r)["id"]

	updated, err := h.catalogService.UpdateProduct(ctx, &product)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to update product")
		return
	}

	writeJSON(ctx, w, http.StatusOK, updated)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.catalogService.DeleteProduct(ctx, mux.Vars(r)["id"]); err != nil {
		h.writeServiceError(ctx, w, err, "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var category models.Category
	if err := decodeJSON(w, r, &category); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.catalogService.CreateCategory(ctx, &category)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to create category")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, created)
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var category models.Category
	if err := decodeJSON(w, r, &category); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	category.ID = mux.Vars(r)["id"]

	updated, err := h.catalogService.UpdateCategory(ctx, &category)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to update category")
		return
	}

	writeJSON(ctx, w, http.StatusOK, updated)
}
