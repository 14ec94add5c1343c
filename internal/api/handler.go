package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/quotegate/internal/domain/dto"
	"github.com/guttosm/quotegate/internal/service"
)

const (
	MsgMissingParameters = "Missing parameters"
	MsgNoData            = "No data found for the given parameters"
)

// Handler provides the HTTP handler for the stock data endpoint.
//
// Responsibilities:
//   - Validate the JSON body (code, start_date, end_date)
//   - Delegate the fetch to the quote service
//   - Map success / empty / error outcomes to 200 / 404 / 500
type Handler struct {
	svc service.QuoteService
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - svc (service.QuoteService): fetches history from the market-data provider.
//
// Returns:
//   - *Handler: A handler ready to be registered with the router.
func NewHandler(svc service.QuoteService) *Handler {
	return &Handler{svc: svc}
}

// GetStockData handles POST /api/stock_data requests.
//
// Responses:
//   - 200 OK: JSON array of quote records, in provider order.
//   - 400 Bad Request: a required field is missing, empty, null or not a string,
//     or the body is not JSON.
//   - 404 Not Found: the provider returned no rows.
//   - 500 Internal Server Error: provider login or query failed.
//
// GetStockData godoc
// @Summary      Get historical daily quotes
// @Description  Fetches daily k-line data for an instrument over an inclusive date range
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request  body      dto.StockDataRequest  true  "Instrument and date range"
// @Success      200      {array}   models.QuoteRecord    "Success"
// @Failure      400      {object}  dto.ErrorResponse     "Missing parameters"
// @Failure      404      {object}  dto.ErrorResponse     "No data found"
// @Failure      500      {object}  dto.ErrorResponse     "Provider failure"
// @Router       /api/stock_data [post]
func (h *Handler) GetStockData(c *gin.Context) {
	// ─── Validate body ────────────────────────────────────────
	var req dto.StockDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(MsgMissingParameters, err))
		return
	}

	// ─── Fetch from provider (with request context) ───────────
	table, err := h.svc.FetchHistory(c.Request.Context(), req.Code, req.StartDate, req.EndDate)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(err.Error(), err))
		return
	}
	if table.Len() == 0 {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(MsgNoData, nil))
		return
	}

	c.JSON(http.StatusOK, table.Records)
}
