package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/pos"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

type productPayload struct {
	Sku          string  `json:"sku" validate:"required,min=1,max=60"`
	Name         string  `json:"name" validate:"required,min=1,max=200"`
	Price        float64 `json:"price" validate:"gte=0"`
	CurrentStock *int    `json:"current_stock"`
	IsActive     bool    `json:"is_active"`
	Image        string  `json:"image" validate:"omitempty,max=1024"`
}

type posSalePayload struct {
	Lines         []pos.SaleLine `json:"lines" validate:"required,min=1,dive"`
	MemberId      int64          `json:"member_id,string"`
	PaymentMethod string         `json:"payment_method" validate:"required,oneof=CASH CARD QR"`
}

type restockPayload struct {
	Qty    int    `json:"qty" validate:"required,min=1"`
	Remark string `json:"remark" validate:"omitempty,max=500"`
}

func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiGET("/products/:id/movements", listStockMovements)
	webserver.ApiPOST("/products/:id/restock", restockProduct)
	webserver.ApiPOST("/pos/sales", createPosSale)
}

func posService(c echo.Context) *pos.Service {
	appCtx := GetAppContext(c)
	return pos.NewService(pos.NewGormRepository(appCtx.DB()), appCtx.Bus())
}

func listProducts(c echo.Context) error {
	page, perPage := parsePagination(c)

	query := GetDB(c).Model(&domain.Product{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		like := "%" + q + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ?", like, like)
	}
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	var rows []domain.Product
	if err := query.Order("name ASC").Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Product validation failed", err.Error())
	}

	sku := strings.TrimSpace(payload.Sku)
	var count int64
	GetDB(c).Model(&domain.Product{}).Where("sku = ?", sku).Count(&count)
	if count > 0 {
		return fail(c, http.StatusConflict, "SKU_EXISTS", "A product with this SKU already exists", sku)
	}

	stock := 0
	if payload.CurrentStock != nil {
		if *payload.CurrentStock < 0 {
			return fail(c, http.StatusBadRequest, "INVALID_STOCK", "Stock cannot be negative", nil)
		}
		stock = *payload.CurrentStock
	}

	p := domain.Product{
		ID:           common.UUIDint64(),
		Sku:          sku,
		Name:         strings.TrimSpace(payload.Name),
		Price:        payload.Price,
		CurrentStock: stock,
		IsActive:     payload.IsActive,
		Image:        payload.Image,
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	return ok(c, p)
}

// updateProduct changes catalog fields only. Stock moves exclusively through
// sales and restocks so the movement ledger always explains the balance.
func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Product validation failed", err.Error())
	}

	p.Sku = strings.TrimSpace(payload.Sku)
	p.Name = strings.TrimSpace(payload.Name)
	p.Price = payload.Price
	p.IsActive = payload.IsActive
	p.Image = payload.Image
	p.UpdatedAt = time.Now()

	if err := GetDB(c).Select("sku", "name", "price", "is_active", "image", "updated_at").
		Where("id = ?", p.ID).Updates(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	return ok(c, p)
}

func listStockMovements(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	page, perPage := parsePagination(c)

	query := GetDB(c).Model(&domain.StockMovement{}).Where("product_id = ?", id)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query stock movements", err.Error())
	}
	var rows []domain.StockMovement
	if err := query.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query stock movements", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func restockProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var payload restockPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse restock", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Restock validation failed", err.Error())
	}

	operatorID, _, _ := currentOperator(c)
	err = posService(c).Restock(c.Request().Context(), pos.RestockInput{
		ProductId: id,
		Qty:       payload.Qty,
		StaffId:   operatorID,
		Remark:    payload.Remark,
	})
	switch {
	case err == pos.ErrProductNotFound:
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to restock product", err.Error())
	}
	return ok(c, map[string]interface{}{"product_id": id, "qty": payload.Qty})
}

func createPosSale(c echo.Context) error {
	var payload posSalePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse sale", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Sale validation failed", err.Error())
	}

	activeShift, staffID, err := activeShiftForOperator(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to resolve active shift", err.Error())
	}
	if activeShift == nil {
		return fail(c, http.StatusConflict, "NO_ACTIVE_SHIFT", "Open a shift before recording sales", nil)
	}

	txn, err := posService(c).Sale(c.Request().Context(), pos.SaleInput{
		Lines:         payload.Lines,
		ShiftId:       activeShift.ID,
		StaffId:       staffID,
		MemberId:      payload.MemberId,
		PaymentMethod: payload.PaymentMethod,
	})
	if err != nil {
		if stockErr, isStock := err.(*pos.ErrInsufficientStock); isStock {
			return fail(c, http.StatusConflict, "INSUFFICIENT_STOCK", "Not enough stock to complete the sale", stockErr.Error())
		}
		switch err {
		case pos.ErrProductNotFound:
			return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
		case pos.ErrProductInactive:
			return fail(c, http.StatusConflict, "PRODUCT_INACTIVE", "Product is not for sale", nil)
		case pos.ErrShiftNotActive:
			return fail(c, http.StatusConflict, "SHIFT_NOT_ACTIVE", "Shift is no longer active", nil)
		case pos.ErrEmptySale:
			return fail(c, http.StatusBadRequest, "EMPTY_SALE", "Sale has no lines", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record sale", err.Error())
	}
	return ok(c, txn)
}
