package paymentgateway

// CreateOrderRequest представляет запрос на создание заказа в Razorpay.
type CreateOrderRequest struct {
	Amount   int               `json:"amount"`   // сумма в минимальных единицах (пайсах)
	Currency string            `json:"currency"` // валюта, например "INR"
	Receipt  string            `json:"receipt"`  // внутренний идентификатор заказа
	Notes    map[string]string `json:"notes,omitempty"`
}

// CreateOrderResponse представляет ответ на создание заказа.
type CreateOrderResponse struct {
	ID        string `json:"id"`     // ID заказа в Razorpay, например "order_xxx"
	Status    string `json:"status"` // статус заказа, например "created"
	Amount    int    `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	CreatedAt int64  `json:"created_at"`
}
