package food

import "errors"

// Domain errors for pantry records

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmptyName         = errors.New("item name is required")
	ErrNegativeQuantity  = errors.New("quantity cannot be negative")
	ErrNegativeCost      = errors.New("unit cost cannot be negative")
	ErrInvalidCategory   = errors.New("category is not recognised")
	ErrInvalidProfile    = errors.New("invalid user profile")
	ErrInvalidBudgetSpan = errors.New("budget period must be weekly or monthly")
)
