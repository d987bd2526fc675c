package dialogue

import (
	"regexp"
	"slices"
	"strings"

	"lumiere-assistant-backend/internal/session"
)

type Intent string

const (
	IntentClearOrder           Intent = "clear_order"
	IntentRemove               Intent = "remove"
	IntentIngredients          Intent = "ingredients"
	IntentReservationStatus    Intent = "reservation_status"
	IntentGoodbye              Intent = "goodbye"
	IntentAffirmative          Intent = "affirmative"
	IntentReservationFollowup  Intent = "reservation_followup"
	IntentDishInfo             Intent = "dish_info"
	IntentShowOrder            Intent = "show_order"
	IntentRecommend            Intent = "recommend"
	IntentRecommendDrinks      Intent = "recommend_drinks"
	IntentRecommendPairing     Intent = "recommend_pairing"
	IntentShowDrinks           Intent = "show_drinks"
	IntentOrder                Intent = "order"
	IntentOrderWithReservation Intent = "order_with_reservation"
	IntentShowMenu             Intent = "show_menu"
	IntentBill                 Intent = "bill"
	IntentAllergen             Intent = "allergen"
	IntentReservation          Intent = "reservation"
	IntentReservationInfo      Intent = "reservation_info"
	IntentChat                 Intent = "chat"
)

// Rule maps an utterance to an intent when Match returns true. Match
// receives the lower-cased, trimmed utterance.
type Rule struct {
	Name  string
	Match func(text string, st *session.State) (Intent, bool)
}

var (
	clearPhrases       = []string{"delete my order", "delete order", "clear order", "remove all", "cancel order", "empty basket", "empty my order"}
	negativePhrases    = []string{"don't want", "dont want", "no longer want", "i dont want"}
	statusPhrases      = []string{"do i have a reservation", "do i have reservation", "my reservation", "any reservation for me"}
	goodbyeWords       = []string{"no", "nope", "nah", "nothing", "that's all", "nothing else", "no thanks"}
	affirmativeWords   = []string{"yes", "yeah", "yep", "sure", "ok", "okay", "please", "yes please"}
	showOrderPhrases   = []string{"show order", "show my order", "my order", "current order", "what did i order", "what's in my order", "check my order"}
	recommendWords     = []string{"recommend", "suggest", "best", "popular", "good", "which", "legendary", "favorite", "favourite"}
	drinkWords         = []string{"drink", "wine", "beer", "beverage", "juice"}
	pairingPhrases     = []string{"for my", "with my", "suit", "pair", "goes with", "match"}
	drinkListWords     = []string{"drink", "wine", "beer", "beverage", "juice", "water"}
	questionWords      = []string{"have", "any", "do you", "is there", "what"}
	orderVerbs         = []string{"want", "order", "add", "get", "wanna"}
	reservationWords   = []string{"book", "reserve", "reservation", "table"}
	menuPhrases        = []string{"menu", "show me", "what do you have", "see menu", "see your menu"}
	billPhrases        = []string{"bill", "pay", "checkout", "check out", "finish", "done", "get bill", "invoice"}
	orderPhrases       = []string{"i'll have", "give me", "can i", "i would like", "i'd like"}
	removeWords        = []string{"remove", "delete", "cancel", "take off"}
	allergyWords       = []string{"allergic", "allergy", "allergen"}
	availabilityPhrase = []string{"available", "when", "which day", "what day", "what time"}

	digits = regexp.MustCompile(`\d+`)
)

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func when(intent Intent, pred func(text string, st *session.State) bool) func(string, *session.State) (Intent, bool) {
	return func(text string, st *session.State) (Intent, bool) {
		return intent, pred(text, st)
	}
}

func phrases(list []string) func(string, *session.State) bool {
	return func(text string, _ *session.State) bool { return containsAny(text, list) }
}

func exactly(list []string) func(string, *session.State) bool {
	return func(text string, _ *session.State) bool { return slices.Contains(list, text) }
}

// DefaultRules is the precedence-ordered rule table. Earlier rules win.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "clear whole order", Match: when(IntentClearOrder, phrases(clearPhrases))},
		{Name: "negative order", Match: when(IntentRemove, phrases(negativePhrases))},
		{Name: "ingredients", Match: when(IntentIngredients, phrases([]string{"ingredient"}))},
		{Name: "reservation status", Match: when(IntentReservationStatus, phrases(statusPhrases))},
		{Name: "goodbye", Match: when(IntentGoodbye, exactly(goodbyeWords))},
		{Name: "affirmative", Match: func(text string, st *session.State) (Intent, bool) {
			if !slices.Contains(affirmativeWords, text) {
				return "", false
			}
			if st != nil && st.Pending == session.PendingReservationDetails {
				return IntentReservationFollowup, true
			}
			return IntentAffirmative, true
		}},
		{Name: "dish info", Match: when(IntentDishInfo, func(text string, _ *session.State) bool {
			return (strings.Contains(text, "what is") || strings.Contains(text, "what's the")) && !strings.Contains(text, "best")
		})},
		{Name: "show order", Match: when(IntentShowOrder, phrases(showOrderPhrases))},
		{Name: "recommend", Match: func(text string, _ *session.State) (Intent, bool) {
			switch {
			case !containsAny(text, recommendWords):
				return "", false
			case containsAny(text, drinkWords):
				return IntentRecommendDrinks, true
			case containsAny(text, pairingPhrases):
				return IntentRecommendPairing, true
			}
			return IntentRecommend, true
		}},
		{Name: "drink question", Match: when(IntentShowDrinks, func(text string, _ *session.State) bool {
			return containsAny(text, drinkListWords) && containsAny(text, questionWords)
		})},
		{Name: "numbered order", Match: when(IntentOrder, func(text string, _ *session.State) bool {
			return digits.MatchString(text) && containsAny(text, orderVerbs)
		})},
		{Name: "order with reservation", Match: when(IntentOrderWithReservation, func(text string, _ *session.State) bool {
			return containsAny(text, reservationWords) && containsAny(text, orderVerbs)
		})},
		{Name: "menu", Match: when(IntentShowMenu, phrases(menuPhrases))},
		{Name: "bill", Match: when(IntentBill, phrases(billPhrases))},
		{Name: "order", Match: when(IntentOrder, func(text string, _ *session.State) bool {
			return containsAny(text, orderVerbs) || containsAny(text, orderPhrases)
		})},
		{Name: "remove", Match: when(IntentRemove, phrases(removeWords))},
		{Name: "allergen", Match: when(IntentAllergen, phrases(allergyWords))},
		{Name: "reservation", Match: when(IntentReservation, phrases(reservationWords))},
		{Name: "availability", Match: when(IntentReservationInfo, func(text string, st *session.State) bool {
			return containsAny(text, availabilityPhrase) && st != nil && st.Pending == session.PendingReservationDetails
		})},
	}
}

// Classifier evaluates its rules in order; chat is the fallback.
type Classifier struct {
	rules []Rule
}

func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify has no side effects: the same utterance and state always give
// the same intent.
func (c *Classifier) Classify(utterance string, st *session.State) Intent {
	intent, _ := c.Explain(utterance, st)
	return intent
}

// Explain is Classify that also names the rule that fired ("" for the fallback).
func (c *Classifier) Explain(utterance string, st *session.State) (Intent, string) {
	text := strings.ToLower(strings.TrimSpace(utterance))
	for _, r := range c.rules {
		if intent, ok := r.Match(text, st); ok {
			return intent, r.Name
		}
	}
	return IntentChat, ""
}

// Rules returns the rule names in precedence order.
func (c *Classifier) Rules() []string {
	names := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		names = append(names, r.Name)
	}
	return names
}
