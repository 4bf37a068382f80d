package types

import (
	"github.com/go-playground/validator/v10"
)

// CreateWatchlistRequest represents a request to create a new watchlist.
type CreateWatchlistRequest struct {
	UserID string           `json:"user_id" validate:"required"`
	Name   string           `json:"name" validate:"required,min=1"`
	Items  []AddItemRequest `json:"items,omitempty" validate:"dive"`
}

// AddItemRequest represents a request to add a tracked item to a watchlist.
type AddItemRequest struct {
	Name        string   `json:"name" validate:"required,min=1"`
	URL         string   `json:"url" validate:"required,url"`
	TargetPrice *float64 `json:"target_price,omitempty" validate:"omitempty,gt=0"`
}

// Validate validates the CreateWatchlistRequest using the validator.
func (r *CreateWatchlistRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the AddItemRequest using the validator.
func (r *AddItemRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
