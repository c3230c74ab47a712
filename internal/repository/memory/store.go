// Package memory keeps product records in process memory.
package memory

import (
	"context"
	"sync"

	"shopnex/internal/models"
	"shopnex/internal/repository"
)

type Store struct {
	mu    sync.RWMutex
	m     map[string]models.Product
	order []string
}

var _ repository.ProductStore = (*Store)(nil)

func New() *Store {
	return &Store{m: make(map[string]models.Product)}
}

func (s *Store) Insert(_ context.Context, p *models.Product) (string, error) {
	rec := p.Clone()
	if rec.ID == "" {
		rec.ID = models.NewID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[rec.ID]; !ok {
		s.order = append(s.order, rec.ID)
	}
	s.m[rec.ID] = rec
	return rec.ID, nil
}

func (s *Store) FindAll(ctx context.Context) ([]models.Product, error) {
	return s.FindByFilter(ctx, models.Filter{})
}

func (s *Store) FindByFilter(_ context.Context, f models.Filter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, 0, len(s.order))
	for _, id := range s.order {
		p := s.m[id]
		if f.Matches(&p) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (s *Store) FindByID(_ context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := p.Clone()
	return &c, nil
}

func (s *Store) UpdateByID(_ context.Context, id string, patch models.Patch) (models.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := models.UpdateResult{Acknowledged: true}
	p, ok := s.m[id]
	if !ok {
		return res, nil
	}
	res.MatchedCount = 1
	p = p.Clone()
	if patch.Apply(&p) {
		res.ModifiedCount = 1
		s.m[id] = p
	}
	return res, nil
}

func (s *Store) DeleteByID(_ context.Context, id string, f models.Filter) (models.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := models.DeleteResult{Acknowledged: true}
	p, ok := s.m[id]
	if !ok || !f.Matches(&p) {
		return res, nil
	}
	delete(s.m, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	res.DeletedCount = 1
	return res, nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
