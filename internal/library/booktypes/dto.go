package booktypes

import "LIBRA-backend/internal/platform/listing"

type TypeInput struct {
	Type     string `json:"type"`
	Fine     string `json:"fine"` // "10.50"
	DayCount int    `json:"day_count"`
}

type TypeResponse struct {
	ID       uint64 `json:"id"`
	Type     string `json:"type"`
	Fine     string `json:"fine"`
	DayCount int    `json:"day_count"`
}

type TypeList = listing.Result[TypeResponse]

func toResponse(t *BookType) TypeResponse {
	return TypeResponse{ID: t.ID, Type: t.Type, Fine: t.Fine.StringFixed(2), DayCount: t.DayCount}
}
