// Package postgres stores product records in PostgreSQL through gorm.
// Caller-supplied extra fields live in a jsonb column.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shopnex/internal/models"
	"shopnex/internal/repository"
)

// productRow is the products table.
type productRow struct {
	models.Base
	Name       string            `gorm:"not null"`
	Price      float64           `gorm:"type:numeric;not null"`
	Email      string            `gorm:"index;not null"`
	Attributes datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
}

func (productRow) TableName() string { return "products" }

func rowFromProduct(p *models.Product) productRow {
	attrs := datatypes.JSONMap{}
	for k, v := range p.Fields {
		attrs[k] = v
	}
	return productRow{
		Base:       models.Base{ID: p.ID},
		Name:       p.Name,
		Price:      p.Price,
		Email:      p.Email,
		Attributes: attrs,
	}
}

func (r productRow) product() models.Product {
	fields := make(map[string]any, len(r.Attributes))
	for k, v := range r.Attributes {
		fields[k] = models.Normalize(v)
	}
	return models.Product{
		ID:     r.ID,
		Name:   r.Name,
		Price:  r.Price,
		Email:  r.Email,
		Fields: fields,
	}
}

type Store struct {
	db *gorm.DB
}

var _ repository.ProductStore = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the products table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&productRow{}); err != nil {
		return fmt.Errorf("migrate products: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, p *models.Product) (string, error) {
	row := rowFromProduct(p)
	if row.ID == "" {
		row.ID = models.NewID()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert product: %w", err)
	}
	return row.ID, nil
}

func (s *Store) FindAll(ctx context.Context) ([]models.Product, error) {
	return s.FindByFilter(ctx, models.Filter{})
}

func (s *Store) FindByFilter(ctx context.Context, f models.Filter) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Order("created_at asc, id asc")
	if f.Email != "" {
		q = q.Where("email = ?", f.Email)
	}
	var rows []productRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	out := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.product())
	}
	return out, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var row productRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	p := row.product()
	return &p, nil
}

// UpdateByID merges patch into the row. The row is read first so a patch that
// leaves every value as it was reports ModifiedCount 0 instead of the matched
// row count Postgres gives for UPDATE.
func (s *Store) UpdateByID(ctx context.Context, id string, patch models.Patch) (models.UpdateResult, error) {
	res := models.UpdateResult{Acknowledged: true}
	db := s.db.WithContext(ctx)
	var row productRow
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return res, nil
	}
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("find product %s: %w", id, err)
	}
	current := row.product()
	if !patch.Apply(&current) {
		res.MatchedCount = 1
		return res, nil
	}
	tx := db.Model(&productRow{}).Where("id = ?", id).Updates(patchColumns(patch))
	if tx.Error != nil {
		return models.UpdateResult{}, fmt.Errorf("update product %s: %w", id, tx.Error)
	}
	res.MatchedCount = tx.RowsAffected
	res.ModifiedCount = tx.RowsAffected
	return res, nil
}

// patchColumns maps a patch onto column updates; extra fields are merged
// into the jsonb column with ||.
func patchColumns(patch models.Patch) map[string]any {
	updates := make(map[string]any)
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if len(patch.Fields) > 0 {
		updates["attributes"] = gorm.Expr("attributes || ?::jsonb", datatypes.JSONMap(patch.Fields))
	}
	return updates
}

func (s *Store) DeleteByID(ctx context.Context, id string, f models.Filter) (models.DeleteResult, error) {
	q := s.db.WithContext(ctx).Where("id = ?", id)
	if f.Email != "" {
		q = q.Where("email = ?", f.Email)
	}
	tx := q.Delete(&productRow{})
	if tx.Error != nil {
		return models.DeleteResult{}, fmt.Errorf("delete product %s: %w", id, tx.Error)
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: tx.RowsAffected}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
