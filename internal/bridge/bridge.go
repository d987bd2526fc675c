// Package bridge asks a language model for free-text replies about the
// restaurant, grounded in the session and in retrieved menu snippets.
package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"lumiere-assistant-backend/internal/catalog"
	"lumiere-assistant-backend/internal/ledger"
	"lumiere-assistant-backend/internal/llm"
	"lumiere-assistant-backend/internal/retrieval"
	"lumiere-assistant-backend/internal/session"
)

const (
	// minReplyRunes is the length a reply must exceed to be used.
	minReplyRunes   = 20
	historyMessages = 4
	historyRunes    = 100
	menuDishes      = 8
	defaultTimeout  = 25 * time.Second
)

// FailureRecorder counts failed backend calls.
type FailureRecorder interface {
	BackendFailed(backend string)
}

type nopFailures struct{}

func (nopFailures) BackendFailed(string) {}

// Context is the read-only session view included in a prompt.
type Context struct {
	Order         []session.OrderLine
	SubtotalCents int64
	Allergens     []string
	History       []session.Message
	Snippets      []string
}

type Bridge struct {
	gen       llm.Generator
	backend   string
	catalog   *catalog.Catalog
	prompts   Prompts
	retriever retrieval.Retriever
	k         int
	timeout   time.Duration
	failures  FailureRecorder
	logger    *zap.Logger
}

type Option func(*Bridge)

// WithRetriever adds up to k retrieved snippets to chat prompts.
func WithRetriever(r retrieval.Retriever, k int) Option {
	return func(b *Bridge) {
		b.retriever = r
		b.k = k
	}
}

func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithFailureRecorder(f FailureRecorder) Option {
	return func(b *Bridge) { b.failures = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// New creates a bridge. A nil generator makes every call fail, so the
// caller's fallback text is used.
func New(gen llm.Generator, cat *catalog.Catalog, prompts Prompts, opts ...Option) *Bridge {
	b := &Bridge{
		gen:      gen,
		backend:  "llm",
		catalog:  cat,
		prompts:  prompts,
		k:        retrieval.DefaultK,
		timeout:  defaultTimeout,
		failures: nopFailures{},
		logger:   zap.NewNop(),
	}
	if named, ok := gen.(interface{ Name() string }); ok {
		b.backend = named.Name()
	}
	for _, o := range opts {
		o(b)
	}
	b.logger = b.logger.Named("bridge")
	return b
}

// Chat answers an open question with the session and retrieved snippets as context.
func (b *Bridge) Chat(ctx context.Context, message string, st *session.State) (string, bool) {
	c := ContextFrom(st)
	c.Snippets = b.retrieve(ctx, message)
	return b.Ask(ctx, message, b.prompts.Chat, c)
}

// Recommend answers an opinion or recommendation question from the menu.
func (b *Bridge) Recommend(ctx context.Context, question string, st *session.State) (string, bool) {
	var parts []string
	if len(st.Allergens) > 0 {
		parts = append(parts, "Customer allergies: "+strings.Join(st.Allergens, ", ")+".")
	}
	if len(st.Order) > 0 {
		parts = append(parts, "Current order: "+orderList(st.Order)+".")
	}

	var p strings.Builder
	if len(parts) > 0 {
		p.WriteString(strings.Join(parts, " "))
		p.WriteString("\n\n")
	}
	if names := b.menuNames(); names != "" {
		fmt.Fprintf(&p, "Menu dishes: %s.\n\n", names)
	}
	p.WriteString("Customer question: ")
	p.WriteString(question)

	return b.Ask(ctx, p.String(), b.prompts.Recommend, Context{Snippets: b.retrieve(ctx, question)})
}

// Ask sends one prompt. ok is false when the backend errs, times out, or
// answers with 20 characters or fewer.
func (b *Bridge) Ask(ctx context.Context, prompt string, spec PromptSpec, c Context) (string, bool) {
	if b.gen == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	text, err := b.gen.Generate(ctx, llm.Request{
		System:      BuildSystem(spec.System, c),
		Prompt:      prompt,
		MaxTokens:   spec.Style.MaxTokens,
		Temperature: spec.Style.Temperature,
	})
	if err != nil {
		b.failures.BackendFailed(b.backend)
		b.logger.Warn("generation failed", zap.String("backend", b.backend), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", false
	}

	text = Clean(text)
	if utf8.RuneCountInString(text) <= minReplyRunes {
		b.failures.BackendFailed(b.backend)
		b.logger.Debug("generated reply too short", zap.String("backend", b.backend), zap.Int("runes", utf8.RuneCountInString(text)))
		return "", false
	}
	b.logger.Debug("generated reply", zap.String("backend", b.backend), zap.Duration("elapsed", time.Since(start)))
	return text, true
}

func (b *Bridge) retrieve(ctx context.Context, query string) []string {
	if b.retriever == nil {
		return nil
	}
	snippets, err := b.retriever.Retrieve(ctx, query, b.k)
	if err != nil {
		b.failures.BackendFailed("retrieval")
		b.logger.Warn("retrieval failed", zap.Error(err))
		return nil
	}
	return snippets
}

func (b *Bridge) menuNames() string {
	if b.catalog == nil {
		return ""
	}
	items := b.catalog.Items()
	if len(items) > menuDishes {
		items = items[:menuDishes]
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return strings.Join(names, ", ")
}

// ContextFrom copies the prompt-relevant parts of st.
func ContextFrom(st *session.State) Context {
	if st == nil {
		return Context{}
	}
	history := st.History
	if len(history) > historyMessages {
		history = history[len(history)-historyMessages:]
	}
	return Context{
		Order:         append([]session.OrderLine(nil), st.Order...),
		SubtotalCents: st.SubtotalCents,
		Allergens:     append([]string(nil), st.Allergens...),
		History:       append([]session.Message(nil), history...),
	}
}

// BuildSystem appends the session context block to a system prompt.
func BuildSystem(system string, c Context) string {
	var b strings.Builder
	b.WriteString(system)

	var facts []string
	if len(c.Order) > 0 {
		facts = append(facts, fmt.Sprintf("Current order: %s (%s).", orderList(c.Order), ledger.FormatEUR(c.SubtotalCents)))
	}
	if len(c.Allergens) > 0 {
		facts = append(facts, "Customer allergies: "+strings.Join(c.Allergens, ", ")+".")
	}
	if len(facts) > 0 {
		b.WriteString("\n\nContext: ")
		b.WriteString(strings.Join(facts, " "))
	}

	if len(c.History) > 0 {
		b.WriteString("\n\nRecent conversation:\n")
		for _, m := range c.History {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, truncate(m.Content, historyRunes))
		}
	}

	if len(c.Snippets) > 0 {
		b.WriteString("\n\nMenu and policy notes:\n")
		for _, s := range c.Snippets {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Clean strips role echoes that small models tend to repeat.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "Customer said:", "")
	text = strings.ReplaceAll(text, "User:", "")
	return strings.TrimSpace(text)
}

func orderList(order []session.OrderLine) string {
	items := make([]string, len(order))
	for i, l := range order {
		items[i] = fmt.Sprintf("%dx %s", l.Quantity, l.Name)
	}
	return strings.Join(items, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
