package clients

import "LIBRA-backend/internal/platform/listing"

type ClientInput struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	FatherName     *string `json:"father_name,omitempty"`
	PassportSeria  string  `json:"passport_seria"`
	PassportNumber string  `json:"passport_number"`
}

type ClientResponse struct {
	ID             uint64  `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	FatherName     *string `json:"father_name"`
	FullName       string  `json:"full_name"`
	PassportSeria  string  `json:"passport_seria"`
	PassportNumber string  `json:"passport_number"`
}

type ClientList = listing.Result[ClientResponse]

func toResponse(c *Client) ClientResponse {
	r := ClientResponse{
		ID:             c.ID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		FullName:       c.FullName(),
		PassportSeria:  c.PassportSeria,
		PassportNumber: c.PassportNumber,
	}
	if c.FatherName.Valid {
		v := c.FatherName.String
		r.FatherName = &v
	}
	return r
}
