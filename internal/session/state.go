package session

import (
	"fmt"
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OrderLine is one ordered item. Name and unit price are copied from the
// catalog when the line is created.
type OrderLine struct {
	ItemID         string `json:"item_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

func (l OrderLine) TotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

type Reservation struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	PartySize   int    `json:"party_size"`
	HasPreorder bool   `json:"has_preorder"`
}

// Pending is the follow-up the assistant is waiting on. The zero value is PendingNone.
type Pending string

const (
	PendingNone               Pending = ""
	PendingReservationDetails Pending = "awaiting_reservation_details"
	PendingDrinksOffer        Pending = "offered_drinks"
	PendingOrderConfirmation  Pending = "confirm_order"
)

func (p Pending) Valid() bool {
	switch p {
	case PendingNone, PendingReservationDetails, PendingDrinksOffer, PendingOrderConfirmation:
		return true
	}
	return false
}

func (p Pending) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid pending state %q", string(p))
	}
	return []byte(p), nil
}

func (p *Pending) UnmarshalText(b []byte) error {
	v := Pending(strings.TrimSpace(string(b)))
	if !v.Valid() {
		return fmt.Errorf("invalid pending state %q", string(b))
	}
	*p = v
	return nil
}

// State is everything remembered about one chat session.
type State struct {
	History       []Message    `json:"history"`
	Order         []OrderLine  `json:"order"`
	SubtotalCents int64        `json:"subtotal_cents"`
	Allergens     []string     `json:"allergens"`
	Reservation   *Reservation `json:"reservation,omitempty"`
	Pending       Pending      `json:"pending"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func New() *State {
	return &State{
		History:   []Message{},
		Order:     []OrderLine{},
		Allergens: []string{},
	}
}

// Recalculate recomputes the subtotal from the order lines. It is the only
// place SubtotalCents is assigned.
func (s *State) Recalculate() {
	var total int64
	for _, l := range s.Order {
		total += l.TotalCents()
	}
	s.SubtotalCents = total
}

// Line returns the index of the order line for itemID, or -1.
func (s *State) Line(itemID string) int {
	for i, l := range s.Order {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

// SetAllergens replaces the allergen set with the normalized, de-duplicated input.
func (s *State) SetAllergens(allergens []string) {
	out := make([]string, 0, len(allergens))
	seen := make(map[string]bool, len(allergens))
	for _, a := range allergens {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	s.Allergens = out
}

func (s *State) AppendExchange(user, assistant string) {
	s.History = append(s.History,
		Message{Role: RoleUser, Content: user},
		Message{Role: RoleAssistant, Content: assistant},
	)
}

// TrimHistory keeps only the most recent limit messages. limit <= 0 keeps everything.
func (s *State) TrimHistory(limit int) {
	if limit <= 0 || len(s.History) <= limit {
		return
	}
	s.History = append([]Message(nil), s.History[len(s.History)-limit:]...)
}

// Clone returns a deep copy so a turn can be applied and committed atomically.
func (s *State) Clone() *State {
	if s == nil {
		return New()
	}
	c := &State{
		History:       append([]Message{}, s.History...),
		Order:         append([]OrderLine{}, s.Order...),
		SubtotalCents: s.SubtotalCents,
		Allergens:     append([]string{}, s.Allergens...),
		Pending:       s.Pending,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Reservation != nil {
		r := *s.Reservation
		c.Reservation = &r
	}
	return c
}
