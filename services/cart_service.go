package services

import (
	"log"
	"math"
	"sync"

	"github.com/Jmdec/ipponyari-sub001/entity"
)

// CartStorage is the durable slot behind the in-memory store. The in-memory
// state stays authoritative when a write fails.
type CartStorage interface {
	Load(key string) ([]entity.CartLine, error)
	Save(key string, lines []entity.CartLine) error
	Delete(key string) error
}

// CartService keeps one cart per session key. All mutations are synchronous;
// each one writes the slot through and notifies subscribers.
type CartService struct {
	mu     sync.Mutex
	store  CartStorage
	carts  map[string][]entity.CartLine
	loaded map[string]bool
	subs   []func(cartID string)
}

func NewCartService(store CartStorage) *CartService {
	return &CartService{
		store:  store,
		carts:  make(map[string][]entity.CartLine),
		loaded: make(map[string]bool),
	}
}

// Subscribe registers an observer called after every mutation of any cart.
func (s *CartService) Subscribe(fn func(cartID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Lines returns the cart's lines in insertion order.
func (s *CartService) Lines(cartID string) []entity.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(cartID)
	lines := make([]entity.CartLine, len(s.carts[cartID]))
	copy(lines, s.carts[cartID])
	return lines
}

// Subtotal is the sum of unit_price * quantity over current lines. Prices
// that are not finite or negative count as 0.
func (s *CartService) Subtotal(cartID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(cartID)
	var total float64
	for _, l := range s.carts[cartID] {
		p := l.UnitPrice
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			p = 0
		}
		total += p * float64(l.Quantity)
	}
	return total
}

// AddLine inserts the product with quantity 1, or bumps the quantity when a
// line with the same id already exists. The original line's fields win over
// the new input on repeat adds.
func (s *CartService) AddLine(cartID string, line entity.CartLine) {
	s.mu.Lock()
	s.ensureLoaded(cartID)
	lines := s.carts[cartID]
	found := false
	for i := range lines {
		if lines[i].ID == line.ID {
			lines[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		lines = append(lines, line)
	}
	s.carts[cartID] = lines
	s.persist(cartID)
	s.mu.Unlock()
	s.notify(cartID)
}

// UpdateQuantity sets a line's quantity; anything below 1 removes the line.
// Unknown ids are a no-op.
func (s *CartService) UpdateQuantity(cartID, lineID string, quantity int) {
	if quantity < 1 {
		s.RemoveLine(cartID, lineID)
		return
	}
	s.mu.Lock()
	s.ensureLoaded(cartID)
	lines := s.carts[cartID]
	for i := range lines {
		if lines[i].ID == lineID {
			lines[i].Quantity = quantity
			s.persist(cartID)
			break
		}
	}
	s.mu.Unlock()
	s.notify(cartID)
}

func (s *CartService) RemoveLine(cartID, lineID string) {
	s.mu.Lock()
	s.ensureLoaded(cartID)
	lines := s.carts[cartID]
	for i := range lines {
		if lines[i].ID == lineID {
			s.carts[cartID] = append(lines[:i], lines[i+1:]...)
			s.persist(cartID)
			break
		}
	}
	s.mu.Unlock()
	s.notify(cartID)
}

func (s *CartService) Clear(cartID string) {
	s.mu.Lock()
	s.ensureLoaded(cartID)
	s.carts[cartID] = nil
	if err := s.store.Delete(cartID); err != nil {
		log.Printf("cart %s: clear slot: %v", cartID, err)
	}
	s.mu.Unlock()
	s.notify(cartID)
}

// ensureLoaded pulls the persisted slot into memory once per key. Callers
// hold s.mu.
func (s *CartService) ensureLoaded(cartID string) {
	if s.loaded[cartID] {
		return
	}
	lines, err := s.store.Load(cartID)
	if err != nil {
		log.Printf("cart %s: load slot: %v", cartID, err)
	}
	s.carts[cartID] = lines
	s.loaded[cartID] = true
}

// persist writes the slot through. Failures are logged only; memory stays
// authoritative. Callers hold s.mu.
func (s *CartService) persist(cartID string) {
	if err := s.store.Save(cartID, s.carts[cartID]); err != nil {
		log.Printf("cart %s: save slot: %v", cartID, err)
	}
}

func (s *CartService) notify(cartID string) {
	s.mu.Lock()
	subs := make([]func(string), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(cartID)
	}
}
