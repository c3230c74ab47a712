// Package mongo stores product records as flat documents in a MongoDB
// collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopnex/internal/models"
	"shopnex/internal/repository"
)

// CollectionSource hands out the products collection, connecting if needed.
type CollectionSource interface {
	Collection(ctx context.Context) (*mongo.Collection, error)
}

type Store struct {
	src CollectionSource
}

var _ repository.ProductStore = (*Store)(nil)

func New(src CollectionSource) *Store {
	return &Store{src: src}
}

// EnsureIndexes creates the owner index used by FindByFilter.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	coll, err := s.src.Collection(ctx)
	if err != nil {
		return err
	}
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: models.FieldEmail, Value: 1}},
		Options: options.Index().SetName("email_1"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, p *models.Product) (string, error) {
	coll, err := s.src.Collection(ctx)
	if err != nil {
		return "", err
	}
	oid := primitive.NewObjectID()
	if p.ID != "" {
		if oid, err = primitive.ObjectIDFromHex(p.ID); err != nil {
			return "", fmt.Errorf("insert product: %w", err)
		}
	}
	doc := bson.M(p.Document())
	doc[models.FieldID] = oid
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert product: %w", err)
	}
	return oid.Hex(), nil
}

func (s *Store) FindAll(ctx context.Context) ([]models.Product, error) {
	return s.FindByFilter(ctx, models.Filter{})
}

func (s *Store) FindByFilter(ctx context.Context, f models.Filter) ([]models.Product, error) {
	coll, err := s.src.Collection(ctx)
	if err != nil {
		return nil, err
	}
	filter := bson.M{}
	if f.Email != "" {
		filter[models.FieldEmail] = f.Email
	}
	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	out := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDocument(d))
	}
	return out, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	coll, err := s.src.Collection(ctx)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	err = coll.FindOne(ctx, bson.M{models.FieldID: oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	p := fromDocument(doc)
	return &p, nil
}

func (s *Store) UpdateByID(ctx context.Context, id string, patch models.Patch) (models.UpdateResult, error) {
	res := models.UpdateResult{Acknowledged: true}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return res, nil
	}
	coll, err := s.src.Collection(ctx)
	if err != nil {
		return models.UpdateResult{}, err
	}
	filter := bson.M{models.FieldID: oid}
	// An empty $set is rejected by the server.
	if patch.Empty() {
		n, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			return models.UpdateResult{}, fmt.Errorf("count product %s: %w", id, err)
		}
		res.MatchedCount = n
		return res, nil
	}
	ur, err := coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M(patch.Set())})
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("update product %s: %w", id, err)
	}
	res.MatchedCount = ur.MatchedCount
	res.ModifiedCount = ur.ModifiedCount
	return res, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string, f models.Filter) (models.DeleteResult, error) {
	res := models.DeleteResult{Acknowledged: true}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return res, nil
	}
	coll, err := s.src.Collection(ctx)
	if err != nil {
		return models.DeleteResult{}, err
	}
	filter := bson.M{models.FieldID: oid}
	if f.Email != "" {
		filter[models.FieldEmail] = f.Email
	}
	dr, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return models.DeleteResult{}, fmt.Errorf("delete product %s: %w", id, err)
	}
	res.DeletedCount = dr.DeletedCount
	return res, nil
}

func (s *Store) Ping(ctx context.Context) error {
	coll, err := s.src.Collection(ctx)
	if err != nil {
		return err
	}
	return coll.Database().Client().Ping(ctx, nil)
}

// fromDocument splits a stored document into core and extra fields.
func fromDocument(doc bson.M) models.Product {
	var p models.Product
	p.Fields = make(map[string]any)
	for k, v := range doc {
		switch k {
		case models.FieldID:
			if oid, ok := v.(primitive.ObjectID); ok {
				p.ID = oid.Hex()
			} else {
				p.ID = fmt.Sprint(v)
			}
		case models.FieldName:
			p.Name, _ = v.(string)
		case models.FieldEmail:
			p.Email, _ = v.(string)
		case models.FieldPrice:
			p.Price, _ = models.ParsePrice(plain(v))
		default:
			p.Fields[k] = plain(v)
		}
	}
	return p
}

// plain converts driver-specific values into their encoding/json friendly
// counterparts.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	case int32:
		return int64(t)
	case primitive.Decimal128:
		return t.String()
	}
	return v
}
