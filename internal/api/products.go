package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/safar/beverage-store/internal/models"
	"github.com/safar/beverage-store/internal/store"
	"github.com/shopspring/decimal"
)

// productForm is the normalized product payload after boundary parsing.
// Handlers build it once from either a multipart form or a JSON body; store
// code never sees the dynamic field shapes.
type productForm struct {
	input    store.ProductInput
	priceSet bool
	stockSet bool
	image    string // base64 payload, when no file was uploaded
}

type productJSON struct {
	Name        string           `json:"name"`
	Price       *float64         `json:"price"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Stock       *int             `json:"stock"`
	Image       string           `json:"image"`
	Nutrition   models.Nutrition `json:"nutrition"`

	// Flat-key nutrition fallbacks, as sent by form-style clients.
	Calories string `json:"calories"`
	Sugar    string `json:"sugar"`
	Caffeine string `json:"caffeine"`
	Serving  string `json:"serving"`
}

// normalizeNutrition accepts both the dotted (`nutrition.calories`) and flat
// (`calories`) key forms, dotted winning, and produces one fixed record.
func normalizeNutrition(get func(string) string) models.Nutrition {
	pick := func(dotted, flat string) string {
		if v := get(dotted); v != "" {
			return v
		}
		return get(flat)
	}

	return models.Nutrition{
		Calories: pick("nutrition.calories", "calories"),
		Sugar:    pick("nutrition.sugar", "sugar"),
		Caffeine: pick("nutrition.caffeine", "caffeine"),
		Serving:  pick("nutrition.serving", "serving"),
	}
}

func (a *API) parseProductForm(r *http.Request) (*productForm, error) {
	form := &productForm{}

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, fmt.Errorf("invalid form data")
		}

		form.input.Name = r.FormValue("name")
		form.input.Description = r.FormValue("description")
		form.input.Category = r.FormValue("category")
		form.input.Nutrition = normalizeNutrition(r.FormValue)
		form.image = r.FormValue("image")

		if v := r.FormValue("price"); v != "" {
			price, err := decimal.NewFromString(v)
			if err != nil {
				return nil, fmt.Errorf("invalid price")
			}
			form.input.Price = price
			form.priceSet = true
		}
		if v := r.FormValue("stock"); v != "" {
			stock, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid stock")
			}
			form.input.Stock = stock
			form.stockSet = true
		}

		if file, header, err := r.FormFile("image"); err == nil {
			defer file.Close()
			name, err := a.saveUpload(file, header)
			if err != nil {
				return nil, fmt.Errorf("invalid image data")
			}
			form.input.Image = name
			form.image = ""
		}

		return form, nil
	}

	var req productJSON
	if err := decodeJSON(r, &req); err != nil {
		return nil, fmt.Errorf("invalid request body")
	}

	form.input.Name = req.Name
	form.input.Description = req.Description
	form.input.Category = req.Category
	form.image = req.Image

	nested := req.Nutrition
	form.input.Nutrition = normalizeNutrition(func(key string) string {
		switch key {
		case "nutrition.calories":
			return nested.Calories
		case "nutrition.sugar":
			return nested.Sugar
		case "nutrition.caffeine":
			return nested.Caffeine
		case "nutrition.serving":
			return nested.Serving
		case "calories":
			return req.Calories
		case "sugar":
			return req.Sugar
		case "caffeine":
			return req.Caffeine
		case "serving":
			return req.Serving
		}
		return ""
	})

	if req.Price != nil {
		form.input.Price = decimal.NewFromFloat(*req.Price)
		form.priceSet = true
	}
	if req.Stock != nil {
		form.input.Stock = *req.Stock
		form.stockSet = true
	}

	return form, nil
}

func (a *API) validateProductForm(w http.ResponseWriter, form *productForm) bool {
	in := form.input

	if in.Name == "" || in.Description == "" || in.Category == "" || !form.priceSet || !form.stockSet {
		a.respondMessage(w, http.StatusBadRequest, "Missing required fields")
		return false
	}
	if in.Price.IsNegative() {
		a.respondMessage(w, http.StatusBadRequest, "Price cannot be negative")
		return false
	}
	if in.Stock < 0 {
		a.respondMessage(w, http.StatusBadRequest, "Stock cannot be negative")
		return false
	}
	if !models.ValidCategory(in.Category) {
		a.respondMessage(w, http.StatusBadRequest, "Invalid category")
		return false
	}
	if !in.Nutrition.Complete() {
		a.respondMessage(w, http.StatusBadRequest, "Missing nutrition information")
		return false
	}

	return true
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := a.parseProductForm(r)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if !a.validateProductForm(w, form) {
		return
	}

	if form.input.Image == "" {
		if form.image == "" {
			a.respondMessage(w, http.StatusBadRequest, "Product image is required")
			return
		}
		name, err := a.saveBase64Image(form.image)
		if err != nil {
			a.respondMessage(w, http.StatusBadRequest, "Invalid image data")
			return
		}
		form.input.Image = name
	}

	product, err := store.CreateProduct(r.Context(), a.db, form.input)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.logger.Info("product created", slog.Int64("product_id", product.ID), slog.String("name", product.Name))
	a.respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Product created successfully",
		"product": product,
	})
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	existing, err := store.GetProduct(r.Context(), a.db, id)
	if err != nil {
		a.respondError(w, err)
		return
	}

	form, err := a.parseProductForm(r)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if !a.validateProductForm(w, form) {
		return
	}

	// No new image keeps the old one.
	if form.input.Image == "" {
		if form.image != "" && form.image != existing.Image {
			name, err := a.saveBase64Image(form.image)
			if err != nil {
				a.respondMessage(w, http.StatusBadRequest, "Invalid image data")
				return
			}
			form.input.Image = name
		} else {
			form.input.Image = existing.Image
		}
	}

	product, err := store.UpdateProduct(r.Context(), a.db, id, form.input)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": product,
	})
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := store.DeleteProduct(r.Context(), a.db, id)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.logger.Info("product deleted", slog.Int64("product_id", id))
	a.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Product deleted successfully",
		"product": product,
	})
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := store.ListProducts(r.Context(), a.db, page, pageSize)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, result)
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := store.GetProduct(r.Context(), a.db, id)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, product)
}

func (a *API) handlePreviewProducts(w http.ResponseWriter, r *http.Request) {
	previews, err := store.ListPreviewProducts(r.Context(), a.db, 8)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, previews)
}
