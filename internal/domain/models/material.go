package models

import "time"

// Material is an inventory record.
type Material struct {
	ID         int       `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Category   *string   `json:"category"`
	Department *string   `json:"department"`
	Quantity   int       `json:"quantity"`
	Unit       *string   `json:"unit"`
	Price      *float64  `json:"price"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
