// Package memstore provides an in-memory implementation of the commerce
// ports. It backs the dev mode (no WooCommerce configured) and the tests.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches WordPress-grade credential hashing for the dev store.
const bcryptCost = 12

// Store is a thread-safe in-memory commerce backend. It implements
// port.IdentityStore, port.ProfileStore, port.CartService,
// port.OrderService and port.ProductCatalog.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account        // by ID
	byEmail  map[string]string                 // lower(email) -> account ID
	hashes   map[string]string                 // account ID -> password hash
	profiles map[string]*domain.BillingProfile // by account ID
	carts    map[string][]domain.CartLine      // by session ID
	orders   map[string]*domain.Order          // by ID
	products map[string]*domain.Product        // by ID
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		byEmail:  make(map[string]string),
		hashes:   make(map[string]string),
		profiles: make(map[string]*domain.BillingProfile),
		carts:    make(map[string][]domain.CartLine),
		orders:   make(map[string]*domain.Order),
		products: make(map[string]*domain.Product),
	}
}

// ============================================================
// IdentityStore
// ============================================================

func (s *Store) GetAccount(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	cp := *acc
	return &cp, nil
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *s.accounts[id]
	return &cp, nil
}

func (s *Store) CreateAccount(_ context.Context, account *domain.Account, password string) (*domain.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(account.Email)
	if _, exists := s.byEmail[key]; exists {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("email already registered: %s", account.Email)}
	}

	cp := *account
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	cp.CreatedAt = time.Now()

	s.accounts[cp.ID] = &cp
	s.byEmail[key] = cp.ID
	s.hashes[cp.ID] = string(hash)

	out := cp
	return &out, nil
}

// PasswordHash returns the stored credential hash for an account.
// Test helper; not part of the IdentityStore port.
func (s *Store) PasswordHash(accountID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hashes[accountID]
}

// ============================================================
// ProfileStore
// ============================================================

func (s *Store) GetBillingProfile(_ context.Context, accountID string) (*domain.BillingProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[accountID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpsertBillingProfile(_ context.Context, profile *domain.BillingProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *profile
	s.profiles[profile.AccountID] = &cp
	return nil
}

// ============================================================
// CartService
// ============================================================

func (s *Store) GetCart(_ context.Context, sessionID string) (*domain.CartSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.carts[sessionID]
	snapshot := &domain.CartSnapshot{
		SessionID: sessionID,
		Lines:     make([]domain.CartLine, len(lines)),
	}
	copy(snapshot.Lines, lines)
	return snapshot, nil
}

func (s *Store) ClearCart(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

// AddCartLine appends a line to a session's cart. Used by dev seeding and
// tests; the real storefront populates carts through WooCommerce.
func (s *Store) AddCartLine(sessionID string, line domain.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[sessionID] = append(s.carts[sessionID], line)
}

// ============================================================
// OrderService
// ============================================================

func (s *Store) CreateOrder(_ context.Context, draft *domain.OrderDraft) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]domain.OrderLine, len(draft.Lines))
	copy(lines, draft.Lines)

	// Totals are recomputed from the line items, not taken from the caller.
	total := 0.0
	for _, l := range lines {
		total += l.Total
	}

	order := &domain.Order{
		ID:           uuid.NewString(),
		CustomerID:   draft.CustomerID,
		Status:       draft.Status,
		Lines:        lines,
		Billing:      draft.Billing,
		CustomerNote: draft.CustomerNote,
		Total:        total,
		CreatedAt:    time.Now(),
	}

	s.orders[order.ID] = order
	cp := *order
	return &cp, nil
}

// GetOrder returns a stored order. Test helper.
func (s *Store) GetOrder(orderID string) *domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil
	}
	cp := *o
	return &cp
}

// OrderCount returns the number of stored orders. Test helper.
func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// AccountCount returns the number of stored accounts. Test helper.
func (s *Store) AccountCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// ============================================================
// ProductCatalog
// ============================================================

func (s *Store) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "product", ID: productID}
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetProductBySKU(_ context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "product", ID: sku}
}

// SeedProduct stores a catalog product. Used by dev seeding and tests.
func (s *Store) SeedProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := p
	s.products[p.ID] = &cp
}
