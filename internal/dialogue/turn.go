package dialogue

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lumiere-assistant-backend/internal/catalog"
	"lumiere-assistant-backend/internal/compose"
	"lumiere-assistant-backend/internal/ledger"
	"lumiere-assistant-backend/internal/session"
)

// Bridge produces free-text replies. ok is false when the backend failed or
// said too little; the handler then uses its own fallback text.
type Bridge interface {
	Chat(ctx context.Context, message string, st *session.State) (reply string, ok bool)
	Recommend(ctx context.Context, question string, st *session.State) (reply string, ok bool)
}

// Sender delivers an HTML email.
type Sender interface {
	Send(ctx context.Context, recipient, subject, html string) error
}

// Recorder receives turn-level events for metrics.
type Recorder interface {
	TurnClassified(intent string)
	EmailSent(kind string, ok bool)
}

type nopRecorder struct{}

func (nopRecorder) TurnClassified(string)  {}
func (nopRecorder) EmailSent(string, bool) {}

type TurnInput struct {
	Message string
	Email   string
}

type Handler struct {
	catalog    *catalog.Catalog
	classifier *Classifier
	resolver   *Resolver
	policy     Policy
	bridge     Bridge
	sender     Sender
	recorder   Recorder
	logger     *zap.Logger
}

type Option func(*Handler)

func WithRecorder(r Recorder) Option {
	return func(h *Handler) { h.recorder = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

func WithClassifier(c *Classifier) Option {
	return func(h *Handler) { h.classifier = c }
}

func NewHandler(cat *catalog.Catalog, policy Policy, bridge Bridge, sender Sender, opts ...Option) *Handler {
	h := &Handler{
		catalog:    cat,
		classifier: NewClassifier(nil),
		resolver:   NewResolver(cat, nil),
		policy:     policy,
		bridge:     bridge,
		sender:     sender,
		recorder:   nopRecorder{},
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Handler) VATRate() float64 { return h.policy.VATRate }

// Handle runs one turn against st, which the caller owns exclusively for
// the duration of the call. The exchange is appended to the history last.
func (h *Handler) Handle(ctx context.Context, st *session.State, in TurnInput) (string, Intent) {
	intent, rule := h.classifier.Explain(in.Message, st)
	h.recorder.TurnClassified(string(intent))
	h.logger.Debug("intent classified",
		zap.String("intent", string(intent)),
		zap.String("rule", rule),
		zap.String("pending", string(st.Pending)),
	)

	reply := h.dispatch(ctx, st, intent, in)
	st.AppendExchange(in.Message, reply)
	return reply, intent
}

func (h *Handler) dispatch(ctx context.Context, st *session.State, intent Intent, in TurnInput) string {
	text := strings.ToLower(strings.TrimSpace(in.Message))
	email := strings.TrimSpace(in.Email)

	switch intent {
	case IntentGoodbye:
		st.Pending = session.PendingNone
		return "Thank you for visiting Maison Lumière! Have a wonderful day! 😊 We look forward to serving you again soon."

	case IntentAffirmative:
		return h.affirmative(st)

	case IntentReservationFollowup:
		st.Pending = session.PendingReservationDetails
		return bookingPrompt

	case IntentDishInfo:
		st.Pending = session.PendingNone
		if r := h.resolver.Resolve(in.Message); r.Found {
			return compose.DishInfo(r.Item, st.Allergens)
		}
		return "Which dish would you like to know about? You can say the dish name or see the full menu."

	case IntentIngredients:
		st.Pending = session.PendingNone
		if r := h.resolver.Resolve(in.Message); r.Found {
			return compose.Ingredients(r.Item)
		}
		return "Which dish would you like the ingredients for?"

	case IntentShowMenu:
		st.Pending = session.PendingNone
		return compose.Menu(h.catalog, st.Allergens)

	case IntentShowDrinks:
		st.Pending = session.PendingNone
		return compose.Beverages(h.catalog, st.Allergens)

	case IntentRecommend:
		st.Pending = session.PendingNone
		shortlist := compose.Recommendations(h.catalog, st.Allergens, in.Message, h.policy.PopularIDs)
		question := in.Message + " (system suggestion: " + strings.ReplaceAll(shortlist, "\n", " ") + ")"
		if reply, ok := h.bridge.Recommend(ctx, question, st); ok {
			return reply
		}
		return shortlist

	case IntentRecommendDrinks:
		st.Pending = session.PendingDrinksOffer
		drinks := compose.Beverages(h.catalog, st.Allergens)
		question := in.Message + " (available drinks: " + strings.ReplaceAll(drinks, "\n", " ") + ")"
		if reply, ok := h.bridge.Recommend(ctx, question, st); ok {
			return reply
		}
		return drinks

	case IntentRecommendPairing:
		st.Pending = session.PendingDrinksOffer
		question := "Recommend a drink that pairs well with the customer's current order. " + in.Message
		if reply, ok := h.bridge.Recommend(ctx, question, st); ok {
			return reply
		}
		return h.policy.RecommendFallback

	case IntentOrder:
		return h.order(st, in.Message)

	case IntentOrderWithReservation:
		return h.orderWithReservation(st, in.Message)

	case IntentRemove:
		st.Pending = session.PendingNone
		return h.remove(st, in.Message)

	case IntentClearOrder:
		st.Pending = session.PendingNone
		return ledger.Clear(st)

	case IntentAllergen:
		st.Pending = session.PendingNone
		return h.allergen(st, in.Message)

	case IntentReservationStatus:
		st.Pending = session.PendingNone
		if st.Reservation == nil {
			return "There is no reservation on file yet. Would you like to book a table?"
		}
		reply := fmt.Sprintf("You have a reservation for %d people on %s at %s.",
			st.Reservation.PartySize, st.Reservation.Date, st.Reservation.Time)
		if len(st.Order) > 0 {
			reply += " Your current pre-order is linked to this reservation."
		}
		return reply

	case IntentReservation, IntentReservationInfo:
		if strings.Contains(text, "available") || strings.Contains(text, "which day") {
			st.Pending = session.PendingReservationDetails
			return availabilityReply
		}
		return h.reserve(ctx, st, in.Message, email)

	case IntentShowOrder:
		st.Pending = session.PendingNone
		if len(st.Order) == 0 {
			return "Your order is empty. Would you like to see our menu?"
		}
		reply := compose.OrderSummary(st, h.policy.VATRate)
		if r := st.Reservation; r != nil {
			reply += fmt.Sprintf("\n\n📅 **Reservation:** %d people on %s at %s", r.PartySize, r.Date, r.Time)
		}
		return reply + "\n\n💡 Ready to checkout? Say 'bill' or 'checkout'"

	case IntentBill:
		st.Pending = session.PendingNone
		return h.bill(ctx, st, email)
	}

	return h.chat(ctx, st, text, in.Message)
}

func (h *Handler) affirmative(st *session.State) string {
	pending := st.Pending
	st.Pending = session.PendingNone
	switch pending {
	case session.PendingDrinksOffer:
		return compose.Beverages(h.catalog, st.Allergens)
	case session.PendingOrderConfirmation:
		return compose.Menu(h.catalog, st.Allergens)
	}
	return "Great! How else can I help you? Would you like to see our menu, place an order, or make a reservation?"
}

// order adds the resolved dish. Pending is only touched when the upsell fires.
func (h *Handler) order(st *session.State, message string) string {
	r := h.resolver.Resolve(message)
	if !r.Found {
		return "I couldn't find that dish. Could you try again or see the menu?"
	}
	reply, err := ledger.AddCapped(st, h.catalog, r.Item.Name, r.Quantity, h.policy.MaxQuantity)
	if err != nil {
		return reply
	}
	if h.policy.WantsUpsell(st.Order) {
		reply += "\n\n" + h.policy.UpsellPrompt
		st.Pending = session.PendingDrinksOffer
	}
	return reply
}

func (h *Handler) orderWithReservation(st *session.State, message string) string {
	r := h.resolver.Resolve(message)
	if !r.Found {
		return "I'd love to help with your order and reservation! What would you like to order?"
	}
	added, err := ledger.AddCapped(st, h.catalog, r.Item.Name, r.Quantity, h.policy.MaxQuantity)
	if err != nil {
		return added
	}
	st.Pending = session.PendingReservationDetails
	return added + "\n\n📅 **Reservation Noted!**\n\nWhen would you like to dine with us?\n" + bookingFormat + "\n\n" + bookingExample
}

func (h *Handler) remove(st *session.State, message string) string {
	r := h.resolver.Resolve(message)
	var target string
	switch {
	case r.Found:
		target = r.Item.Name
	case len(st.Order) == 1:
		target = st.Order[0].Name
	case len(st.Order) > 1:
		return "Which dish would you like to remove?\n\n" + compose.OrderSummary(st, h.policy.VATRate)
	default:
		return "Your order is empty."
	}
	reply, _ := ledger.Remove(st, h.catalog, target)
	return reply
}

func (h *Handler) allergen(st *session.State, message string) string {
	if IsAllergenDeclaration(message) {
		found := ExtractAllergens(message, h.policy.AllergenVocab)
		if len(found) == 0 {
			return "Please tell me which allergens you have.\n\nExample: 'I'm allergic to milk and peanuts'"
		}
		st.SetAllergens(found)
		st.Pending = session.PendingOrderConfirmation
		return fmt.Sprintf("Got it. I will check all dishes for: %s.\n\n✅ I'll mark safe options when showing the menu.\n\nWould you like to see it now?",
			strings.Join(st.Allergens, ", "))
	}

	if r := h.resolver.Resolve(message); r.Found {
		return compose.AllergenVerdict(r.Item, st.Allergens)
	}
	if len(st.Allergens) > 0 {
		return fmt.Sprintf("Your allergies: **%s**\n\nWhich dish should I check?", strings.Join(st.Allergens, ", "))
	}
	return "Please tell me your allergens first."
}

func (h *Handler) reserve(ctx context.Context, st *session.State, message, email string) string {
	res, err := ParseReservation(message)
	if err != nil {
		h.logger.Debug("reservation not parsed", zap.Error(err))
		st.Pending = session.PendingReservationDetails
		return bookingPrompt
	}
	res.HasPreorder = len(st.Order) > 0
	st.Reservation = &res
	st.Pending = session.PendingNone

	if email == "" {
		return fmt.Sprintf("✅ Reservation noted for %d people on %s at %s.\n\nPlease enter your email above for confirmation.",
			res.PartySize, res.Date, res.Time)
	}

	var preorder []session.OrderLine
	if res.HasPreorder {
		preorder = st.Order
	}
	if err := h.sendReservation(ctx, email, res, preorder); err != nil {
		return fmt.Sprintf("✅ Reservation confirmed for %d people on %s at %s.\n\n⚠️ The confirmation email to %s could not be sent. Please check your email address.",
			res.PartySize, res.Date, res.Time, email)
	}
	if res.HasPreorder {
		return fmt.Sprintf("✅ **Reservation Confirmed!**\n\n📅 **Date:** %s\n🕐 **Time:** %s\n👥 **Party Size:** %d people\n\n🍽️ **Pre-Order:**\n%s\n\n📧 Confirmation sent to **%s**\n\nWe look forward to serving you! 😊",
			res.Date, res.Time, res.PartySize, compose.OrderLineList(st.Order), email)
	}
	return fmt.Sprintf("✅ **Reservation Confirmed!**\n\n📅 %s at %s for %d people\n📧 Confirmation sent to %s\n\nSee you soon! 😊",
		res.Date, res.Time, res.PartySize, email)
}

func (h *Handler) sendReservation(ctx context.Context, email string, res session.Reservation, preorder []session.OrderLine) error {
	html, err := compose.ReservationHTML(res, preorder)
	if err == nil {
		err = h.sender.Send(ctx, email, compose.ReservationSubject, html)
	}
	h.recorder.EmailSent("reservation", err == nil)
	if err != nil {
		h.logger.Warn("reservation email failed", zap.Error(err))
	}
	return err
}

func (h *Handler) bill(ctx context.Context, st *session.State, email string) string {
	if len(st.Order) == 0 {
		return "Your order is empty. Would you like to order something delicious?"
	}
	if email == "" {
		return compose.OrderSummary(st, h.policy.VATRate) + "\n\n📧 **Please enter your email above** to receive your bill."
	}

	t := ledger.Compute(st.SubtotalCents, h.policy.VATRate)
	html, err := compose.BillHTML(st, h.policy.VATRate)
	if err == nil {
		err = h.sender.Send(ctx, email, compose.BillSubject, html)
	}
	h.recorder.EmailSent("bill", err == nil)
	if err != nil {
		h.logger.Warn("bill email failed", zap.Error(err))
		return fmt.Sprintf("⚠️ Bill ready (%s) but email failed. Please check your email address.", ledger.FormatEUR(t.Total))
	}
	return fmt.Sprintf("✅ **Order Complete!**\n\n📦 **Items:** %d\n💰 **Subtotal:** %s\n📊 **VAT (%s):** %s\n💳 **Total:** %s\n\n📧 Bill sent to **%s**\n\nThank you! Enjoy your meal! 🍽️✨",
		len(st.Order), ledger.FormatEUR(t.Subtotal), ledger.RatePercent(h.policy.VATRate), ledger.FormatEUR(t.VAT), ledger.FormatEUR(t.Total), email)
}

func (h *Handler) chat(ctx context.Context, st *session.State, text, message string) string {
	if isOpinionQuestion(text) {
		if reply, ok := h.bridge.Recommend(ctx, message, st); ok {
			return reply
		}
		return h.policy.RecommendFallback
	}
	if reply, ok := quickReply(text); ok {
		return reply
	}
	if reply, ok := cannedReply(text, st, h.catalog); ok {
		return reply
	}
	if reply, ok := h.bridge.Chat(ctx, message, st); ok {
		return reply
	}
	return h.policy.ChatFallback
}

const (
	bookingPrompt = "To book a table, please provide:\n• **Date** (YYYY-MM-DD or MM/DD/YYYY)\n• **Time** (HH:MM)\n• **Number of people**\n\n" + bookingExample

	availabilityReply = "📅 **Reservation Information**\n\nWe're open **every day**:\n• 🌅 Lunch: 11:00 - 15:00\n• 🌆 Dinner: 17:00 - 22:00\n\nTo book a table, please provide:\n• Date (YYYY-MM-DD)\n• Time (HH:MM)\n• Number of people\n\n" + bookingExample
)
