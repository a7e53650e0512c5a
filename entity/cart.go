package entity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// CartLine is one product entry in the cart. Quantity is >= 1 for as long as
// the line exists; dropping below 1 removes the line.
type CartLine struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	UnitPrice    float64 `json:"unit_price"`
	Quantity     int     `json:"quantity"`
	Category     string  `json:"category"`
	IsSpicy      bool    `json:"is_spicy"`
	IsVegetarian bool    `json:"is_vegetarian"`
	Image        string  `json:"image"`
}

// LineInput is the wire shape for adding a product to the cart. Product data
// arrives from two generations of the menu API, so both field spellings are
// accepted here and nowhere else.
type LineInput struct {
	ID        any      `json:"id" binding:"required"`
	Name      string   `json:"name" binding:"required"`
	UnitPrice *float64 `json:"unit_price"`
	Price     *float64 `json:"price"`
	Category  string   `json:"category"`

	IsSpicy         *bool `json:"is_spicy"`
	IsSpicyAlt      *bool `json:"isSpicy"`
	IsVegetarian    *bool `json:"is_vegetarian"`
	IsVegetarianAlt *bool `json:"isVegetarian"`

	Image string `json:"image"`
}

// Normalize maps a LineInput onto the canonical CartLine. Ids may be numeric
// or string; prices that are missing, negative or not finite are treated as 0
// so totals can never go NaN or negative.
func (in *LineInput) Normalize() (CartLine, error) {
	var id string
	switch v := in.ID.(type) {
	case string:
		id = v
	case float64:
		id = strconv.FormatInt(int64(v), 10)
	case int:
		id = strconv.Itoa(v)
	default:
		return CartLine{}, fmt.Errorf("unsupported id type %T", in.ID)
	}
	if id == "" {
		return CartLine{}, errors.New("empty product id")
	}

	price := 0.0
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	} else if in.Price != nil {
		price = *in.Price
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		price = 0
	}

	return CartLine{
		ID:           id,
		Name:         in.Name,
		UnitPrice:    price,
		Quantity:     1,
		Category:     in.Category,
		IsSpicy:      pickFlag(in.IsSpicy, in.IsSpicyAlt),
		IsVegetarian: pickFlag(in.IsVegetarian, in.IsVegetarianAlt),
		Image:        in.Image,
	}, nil
}

func pickFlag(canonical, alt *bool) bool {
	if canonical != nil {
		return *canonical
	}
	if alt != nil {
		return *alt
	}
	return false
}

// CartRecord is the persisted slot for one cart: a session key plus the
// serialized lines, written through on every mutation.
type CartRecord struct {
	Key       string `gorm:"primaryKey;size:64"`
	Data      []byte
	UpdatedAt time.Time
}
