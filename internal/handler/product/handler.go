package product

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finpilot/loanflow/backend/internal/model/loan"
	"github.com/finpilot/loanflow/backend/pkg/utils"
)

// Handler serves the read-only loan product shelf.
type Handler struct {
	catalog loan.Catalog
}

// New creates the product handler.
func New(catalog loan.Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// RegisterRoutes mounts the product routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.handleList)
	r.Get("/products/{productID}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.catalog.List())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	product, ok := h.catalog.FindByID(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "product not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, product)
}
