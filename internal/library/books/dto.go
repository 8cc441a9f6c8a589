package books

import "LIBRA-backend/internal/platform/listing"

type BookInput struct {
	Name   string `json:"name"`
	Cnt    int    `json:"cnt"`
	TypeID uint64 `json:"type_id"`
}

type PolicyDTO struct {
	ID       uint64 `json:"id"`
	Type     string `json:"type"`
	Fine     string `json:"fine"`
	DayCount int    `json:"day_count"`
}

type BookResponse struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Cnt       int       `json:"cnt"`
	Available int       `json:"available"`
	Type      PolicyDTO `json:"type"`
}

type BookList = listing.Result[BookResponse]

func toResponse(b *Book) BookResponse {
	avail := b.Available
	if avail < 0 {
		avail = 0
	}
	return BookResponse{
		ID:        b.ID,
		Name:      b.Name,
		Cnt:       b.Cnt,
		Available: avail,
		Type: PolicyDTO{
			ID:       b.TypeID,
			Type:     b.TypeName,
			Fine:     b.Fine.StringFixed(2),
			DayCount: b.DayCount,
		},
	}
}
