// Package catalog implements the product operations: presence checks on
// create and an owner check before delete.
//
// Update performs no owner check: any caller holding an id may merge fields
// into that record.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shopnex/internal/models"
	"shopnex/internal/repository"
)

type Service struct {
	store   repository.ProductStore
	timeout time.Duration
}

// NewService wraps store. A positive timeout bounds every storage call.
func NewService(store repository.ProductStore, timeout time.Duration) *Service {
	return &Service{store: store, timeout: timeout}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Create validates payload and stores it as a new product.
func (s *Service) Create(ctx context.Context, payload map[string]any) (string, error) {
	name, okName := truthyString(payload[models.FieldName])
	email, okEmail := truthyString(payload[models.FieldEmail])
	price, okPrice := models.ParsePrice(payload[models.FieldPrice])
	if !okName || !okEmail || !okPrice || price == 0 {
		return "", validationError(MsgRequired, nil)
	}
	p := &models.Product{
		Name:   name,
		Price:  price,
		Email:  email,
		Fields: models.ExtraFields(payload),
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	id, err := s.store.Insert(ctx, p)
	if err != nil {
		return "", unexpected(err)
	}
	slog.InfoContext(ctx, "product_created", "product_id", id, "owner", email)
	return id, nil
}

// List returns every product in storage order.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	items, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, unexpected(err)
	}
	return items, nil
}

// ListByOwner returns the products created with email. No match is an
// empty slice.
func (s *Service) ListByOwner(ctx context.Context, email string) ([]models.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	items, err := s.store.FindByFilter(ctx, models.Filter{Email: email})
	if err != nil {
		return nil, unexpected(err)
	}
	if items == nil {
		items = []models.Product{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	if !models.ValidID(id) {
		return nil, validationError(MsgInvalidID, nil)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.find(ctx, id)
}

func (s *Service) find(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, unexpected(err)
	}
	return p, nil
}

// Update merges raw into the product with id. The record is not looked up
// first: a missing id yields a zero MatchedCount, not an error.
func (s *Service) Update(ctx context.Context, id string, raw map[string]any) (models.UpdateResult, error) {
	if !models.ValidID(id) {
		return models.UpdateResult{}, validationError(MsgInvalidID, nil)
	}
	patch, err := models.NewPatch(raw)
	if err != nil {
		return models.UpdateResult{}, validationError(err.Error(), err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.store.UpdateByID(ctx, id, patch)
	if err != nil {
		return models.UpdateResult{}, unexpected(err)
	}
	slog.InfoContext(ctx, "product_updated", "product_id", id,
		"matched", res.MatchedCount, "modified", res.ModifiedCount)
	return res, nil
}

// Delete removes the product with id when requesterEmail owns it.
//
// The delete itself is conditioned on the owner as well, so a record that
// disappears or changes hands between the check and the delete is reported
// as not found.
func (s *Service) Delete(ctx context.Context, id, requesterEmail string) error {
	if !models.ValidID(id) {
		return validationError(MsgInvalidID, nil)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	p, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !p.OwnedBy(requesterEmail) {
		slog.WarnContext(ctx, "product_delete_denied", "product_id", id, "requester", requesterEmail)
		return &Error{Kind: KindAuthorization, Message: MsgUnauthorized}
	}
	res, err := s.store.DeleteByID(ctx, id, models.Filter{Email: requesterEmail})
	if err != nil {
		return unexpected(err)
	}
	if res.DeletedCount == 0 {
		return notFound()
	}
	slog.InfoContext(ctx, "product_deleted", "product_id", id, "owner", requesterEmail)
	return nil
}

func truthyString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

// Ping checks that storage is reachable.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.Ping(ctx)
}
