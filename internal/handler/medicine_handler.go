package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"mediscan/internal/catalog"
	"mediscan/internal/model"
	"mediscan/internal/search"
	"mediscan/pkg/logger"
)

// CategoryResponse is one entry of the category bar
type CategoryResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MedicineListResponse is the result of a stateless catalog query
type MedicineListResponse struct {
	Query    string               `json:"query"`
	Category model.CategoryFilter `json:"category"`
	Items    []model.Medicine     `json:"items"`
	Total    int                  `json:"total"`
}

// MedicineHandler serves read-only catalog endpoints
type MedicineHandler struct {
	catalog *catalog.Catalog
}

// NewMedicineHandler creates a handler over cat
func NewMedicineHandler(cat *catalog.Catalog) *MedicineHandler {
	return &MedicineHandler{catalog: cat}
}

// ListCategories returns the "all" pseudo category followed by every category in display order
func (h *MedicineHandler) ListCategories(c echo.Context) error {
	counts := h.catalog.CountByCategory()

	out := make([]CategoryResponse, 0, len(model.Categories())+1)
	out = append(out, CategoryResponse{
		Code:  model.AllCategoriesValue,
		Label: model.AllCategoriesLabel,
		Count: h.catalog.Len(),
	})
	for _, cat := range model.Categories() {
		out = append(out, CategoryResponse{
			Code:  cat.Code(),
			Label: cat.Label(),
			Count: counts[cat],
		})
	}
	return c.JSON(http.StatusOK, out)
}

// ListMedicines filters the catalog by category and local text match
func (h *MedicineHandler) ListMedicines(c echo.Context) error {
	log := logger.FromEcho(c)

	filter, err := model.ParseCategoryFilter(c.QueryParam("category"))
	if err != nil {
		log.Warn("Invalid category filter", zap.String("category", c.QueryParam("category")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	query := c.QueryParam("q")

	items := search.Resolve(h.catalog.Items(), filter, query, nil)
	log.Debug("Medicines listed",
		zap.Stringer("category", filter),
		zap.String("query", query),
		zap.Int("count", len(items)))

	return c.JSON(http.StatusOK, MedicineListResponse{
		Query:    query,
		Category: filter,
		Items:    items,
		Total:    len(items),
	})
}

// GetMedicine returns one medicine by id
func (h *MedicineHandler) GetMedicine(c echo.Context) error {
	id := c.Param("id")

	med, err := h.catalog.Get(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Medicine not found"})
		}
		logger.FromEcho(c).Error("Failed to get medicine", zap.String("medicine_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve medicine"})
	}
	return c.JSON(http.StatusOK, med)
}
