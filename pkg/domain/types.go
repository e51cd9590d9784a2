package domain

import "time"

type UserRole string

const (
	RoleReader    UserRole = "Reader"
	RoleAuthor    UserRole = "Author"
	RolePublisher UserRole = "Publisher"
	RoleAdmin     UserRole = "Admin"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentKhalti PaymentMethod = "KHALTI"
	PaymentEsewa  PaymentMethod = "ESEWA"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
)

type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
}

// CartItem mirrors the server's cart item serializer. Subtotal is
// server-computed; the client never derives it from price and quantity.
type CartItem struct {
	ID        int64  `json:"id"`
	Book      int64  `json:"book"`
	BookTitle string `json:"book_title"`
	BookPrice Amount `json:"book_price"`
	BookCover string `json:"book_cover"`
	Quantity  int    `json:"quantity"`
	Subtotal  Amount `json:"subtotal"`
}

type Cart struct {
	ID         int64      `json:"id"`
	Items      []CartItem `json:"items"`
	TotalPrice Amount     `json:"total_price"`
	ItemsCount int        `json:"items_count"`
}

type WishlistItem struct {
	ID        int64  `json:"id"`
	Book      int64  `json:"book"`
	BookTitle string `json:"book_title"`
	BookPrice Amount `json:"book_price"`
	BookCover string `json:"book_cover"`
}

type Order struct {
	ID              int64         `json:"id"`
	Status          OrderStatus   `json:"status"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	TotalAmount     Amount        `json:"total_amount"`
	ShippingAddress string        `json:"shipping_address"`
	ContactNumber   string        `json:"contact_number"`
	TrackingNumber  string        `json:"tracking_number,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Payment struct {
	ID            int64         `json:"id"`
	Order         int64         `json:"order"`
	Amount        Amount        `json:"amount"`
	Type          PaymentMethod `json:"type"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Status        PaymentStatus `json:"status"`
}
