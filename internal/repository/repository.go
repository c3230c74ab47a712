// Package repository defines the storage contract for product records.
package repository

import (
	"context"
	"errors"

	"shopnex/internal/models"
)

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("record not found")

// ProductStore persists product records. Each call is atomic on its own;
// nothing spans more than one document.
type ProductStore interface {
	// Insert stores p, assigning an id when p.ID is empty, and returns the id.
	Insert(ctx context.Context, p *models.Product) (string, error)
	FindAll(ctx context.Context) ([]models.Product, error)
	FindByFilter(ctx context.Context, f models.Filter) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	// UpdateByID merges patch into the record. A missing id is not an error.
	UpdateByID(ctx context.Context, id string, patch models.Patch) (models.UpdateResult, error)
	// DeleteByID removes the record with id if it also matches f.
	DeleteByID(ctx context.Context, id string, f models.Filter) (models.DeleteResult, error)
	Ping(ctx context.Context) error
}
