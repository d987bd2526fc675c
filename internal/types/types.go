package types

// ChatRequest is the body of POST /chat and of each websocket frame.
type ChatRequest struct {
	SessionID     string   `json:"session_id"`
	UserMessage   string   `json:"user_message"`
	UserEmail     string   `json:"user_email,omitempty"`
	UserAllergens []string `json:"user_allergens,omitempty"`
}

type OrderItem struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type ChatResponse struct {
	SessionID        string      `json:"session_id"`
	AssistantMessage string      `json:"assistant_message"`
	CurrentOrder     []OrderItem `json:"current_order"`
	CurrentTotal     float64     `json:"current_total"`
	Intent           string      `json:"intent,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}
