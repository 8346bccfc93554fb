package kafka

import "time"

const (
	TopicAccountCreated = `palengke.account-created`
	TopicOrderCreated   = `palengke.order-created`
	TopicOrderPaid      = `palengke.order-paid`
)

// Events published by the service. Consumers (notifications, analytics)
// depend on these shapes.

type AccountCreatedEvent struct {
	UserID    int       `json:"user_id"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderCreatedEvent struct {
	OrderID     int       `json:"order_id"`
	BuyerID     int       `json:"buyer_id"`
	StallID     int       `json:"stall_id"`
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderPaidEvent struct {
	OrderID    int       `json:"order_id"`
	PaymentRef string    `json:"payment_ref"`
	CreatedAt  time.Time `json:"created_at"`
}
