package adminapi

import (
	"net/http"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
)

var transactionSortColumns = map[string]string{
	"created_at": "created_at",
	"amount":     "amount",
	"type":       "type",
}

// registerTransactionRoutes exposes the financial ledger read-only. Rows are
// written by the membership, check-in and point-of-sale services only.
func registerTransactionRoutes() {
	webserver.ApiGET("/transactions", listTransactions)
	webserver.ApiGET("/transactions/:id", getTransaction)
}

func listTransactions(c echo.Context) error {
	page, perPage := parsePagination(c)

	query := GetDB(c).Model(&domain.Transaction{})
	if t := strings.TrimSpace(c.QueryParam("type")); t != "" {
		query = query.Where("type = ?", t)
	}
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if shiftID := c.QueryParam("shift_id"); shiftID != "" {
		query = query.Where("shift_id = ?", shiftID)
	}
	if memberID := c.QueryParam("member_id"); memberID != "" {
		query = query.Where("member_id = ?", memberID)
	}
	if from := c.QueryParam("from"); from != "" {
		if t, err := dateparse.ParseLocal(from); err == nil {
			query = query.Where("created_at >= ?", t)
		}
	}
	if to := c.QueryParam("to"); to != "" {
		if t, err := dateparse.ParseLocal(to); err == nil {
			query = query.Where("created_at <= ?", t)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query transactions", err.Error())
	}

	col, order := parseSort(c, transactionSortColumns, "created_at")
	var rows []domain.Transaction
	if err := query.Order(col + " " + order).Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query transactions", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getTransaction(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid transaction ID", nil)
	}
	var t domain.Transaction
	if err := GetDB(c).Where("id = ?", id).First(&t).Error; err != nil {
		return fail(c, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found", nil)
	}
	return ok(c, t)
}
