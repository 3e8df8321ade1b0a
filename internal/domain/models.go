package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a registered account. Username and Email are each unique across all users.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Birthdate    Date   `json:"birthdate"`
	Address      string `json:"address"`
}

// UserPatch carries a sparse profile update; nil fields are left untouched
type UserPatch struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	Birthdate *Date   `json:"birthdate,omitempty"`
	Address   *string `json:"address,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.Birthdate == nil && p.Address == nil
}

// CartLine is one product entry in a cart. Price is the snapshot taken when the
// line was first added.
type CartLine struct {
	ProductID string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Subtotal returns price times quantity
func (l CartLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Cart is the single cart owned by a user
type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Lines     []CartLine `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsEmpty reports whether the cart holds no lines
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// Line returns the index of the line for productID, or -1
func (c *Cart) Line(productID string) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// Product is a catalog entry. ID is assigned by whoever registers the product.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Price       int64    `json:"price"`
	Image       string   `json:"image"`
	Tags        []string `json:"tags,omitempty"`
}

// Gift is a recommendation catalog entry; Tags drive matching
type Gift struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Material    []string        `json:"material"`
	Size        []string        `json:"size"`
	Notes       []string        `json:"notes"`
	Tags        []string        `json:"tags"`
	ProductURL  string          `json:"product_url"`
	ImageURL    string          `json:"image_url"`
}

// Order is an immutable purchase record
type Order struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Lines         []CartLine `json:"items"`
	TotalPrice    int64      `json:"total_price"`
	PaymentMethod string     `json:"payment_method"`
	Address       string     `json:"address"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Customer is a loose contact record, unrelated to User
type Customer struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Birthdate Date   `json:"birthdate"`
	Email     string `json:"email"`
	Address   string `json:"address"`
}

// CustomerPatch carries a sparse customer update
type CustomerPatch struct {
	Username  *string `json:"username,omitempty"`
	Birthdate *Date   `json:"birthdate,omitempty"`
	Email     *string `json:"email,omitempty"`
	Address   *string `json:"address,omitempty"`
}
