package pharmacy

import "time"

// Order is a medicine order collected over WhatsApp.
// Orders are created only from a confirmed session; abandoned carts
// never reach the store.
type Order struct {
	ID          string `json:"id" db:"id"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	Status OrderStatus `json:"status" db:"status"`

	Items []OrderItem `json:"items"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderItem struct {
	OrderID  string `json:"order_id" db:"order_id"`
	Name     string `json:"name" db:"name"`
	Quantity int    `json:"quantity" db:"quantity"`
}

// Session is the per-customer conversation state. Sessions are
// ephemeral; losing one costs the customer a restart, nothing more.
type Session struct {
	PhoneNumber string
	State       SessionState
	Items       []OrderItem
	UpdatedAt   time.Time
}

type SessionState string

const (
	// StateMenu waits for the customer to pick an option.
	StateMenu SessionState = "menu"
	// StateCollecting accumulates items until the customer says done.
	StateCollecting SessionState = "collecting"
	// StateConfirm waits for a yes/no on the cart summary.
	StateConfirm SessionState = "confirm"
)
