package dto

// StockDataRequest is the body of POST /api/stock_data.
//
// All three fields are required and must be non-empty.
type StockDataRequest struct {
	Code      string `json:"code" binding:"required" example:"sh.600000"`        // Exchange-prefixed instrument code
	StartDate string `json:"start_date" binding:"required" example:"2024-01-01"` // Inclusive start, YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required" example:"2024-01-05"`   // Inclusive end, YYYY-MM-DD
}
