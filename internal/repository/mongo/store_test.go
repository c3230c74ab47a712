package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"shopnex/internal/models"
	"shopnex/internal/repository"
)

func TestFromDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := bson.M{
		"_id":      oid,
		"name":     "Mug",
		"price":    int32(10),
		"email":    "a@x.com",
		"category": "kitchen",
		"stock":    int32(4),
		"dims":     bson.M{"w": 1.5},
		"tags":     bson.A{"a", bson.D{{Key: "k", Value: "v"}}},
		"added":    primitive.NewDateTimeFromTime(when),
	}

	p := fromDocument(doc)
	assert.Equal(t, oid.Hex(), p.ID)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, 10.0, p.Price)
	assert.Equal(t, "a@x.com", p.Email)
	assert.Equal(t, map[string]any{
		"category": "kitchen",
		"stock":    int64(4),
		"dims":     map[string]any{"w": 1.5},
		"tags":     []any{"a", map[string]any{"k": "v"}},
		"added":    "2024-01-02T03:04:05Z",
	}, p.Fields)
}

type downSource struct{ err error }

func (d downSource) Collection(context.Context) (*mongo.Collection, error) {
	return nil, d.err
}

func TestConnectionFailureSurfaces(t *testing.T) {
	boom := errors.New("mongo: connection unavailable")
	s := New(downSource{err: boom})
	ctx := context.Background()

	_, err := s.Insert(ctx, &models.Product{Name: "Mug", Price: 1, Email: "a@x.com"})
	assert.ErrorIs(t, err, boom)
	_, err = s.FindAll(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Ping(ctx), boom)
}

func TestMalformedIDsNeverReachServer(t *testing.T) {
	s := New(downSource{err: errors.New("should not dial")})
	ctx := context.Background()

	_, err := s.FindByID(ctx, "zzz")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	ur, err := s.UpdateByID(ctx, "zzz", models.Patch{})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), ur.MatchedCount)

	dr, err := s.DeleteByID(ctx, "zzz", models.Filter{})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), dr.DeletedCount)
}

type collSource struct{ coll *mongo.Collection }

func (s collSource) Collection(context.Context) (*mongo.Collection, error) {
	return s.coll, nil
}

// nextCommand returns the oldest unread command the client sent, which must be name.
func nextCommand(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt)
	require.Equal(mt, name, evt.CommandName)
	return evt.Command
}

// docAt decodes the document at path inside cmd.
func docAt(mt *mtest.T, cmd bson.Raw, path ...string) bson.M {
	mt.Helper()
	var doc bson.M
	require.NoError(mt, bson.Unmarshal(cmd.Lookup(path...).Document(), &doc))
	return doc
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestStoreCommands(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert keeps fields flat", func(mt *mtest.T) {
		s := New(collSource{mt.Coll})
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		id, err := s.Insert(ctx, &models.Product{
			Name: "Mug", Price: 9.99, Email: "a@x.com",
			Fields: map[string]any{"category": "kitchen"},
		})
		require.NoError(mt, err)
		doc := docAt(mt, nextCommand(mt, "insert"), "documents", "0")
		assert.Equal(mt, id, doc["_id"].(primitive.ObjectID).Hex())
		assert.Equal(mt, "Mug", doc["name"])
		assert.Equal(mt, 9.99, doc["price"])
		assert.Equal(mt, "a@x.com", doc["email"])
		assert.Equal(mt, "kitchen", doc["category"])
	})

	mt.Run("find by owner filters on email", func(mt *mtest.T) {
		s := New(collSource{mt.Coll})
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid}, {Key: "name", Value: "Mug"},
			{Key: "price", Value: 9.99}, {Key: "email", Value: "a@x.com"},
		}))

		got, err := s.FindByFilter(ctx, models.Filter{Email: "a@x.com"})
		require.NoError(mt, err)
		require.Len(mt, got, 1)
		assert.Equal(mt, oid.Hex(), got[0].ID)
		assert.Equal(mt, bson.M{"email": "a@x.com"}, docAt(mt, nextCommand(mt, "find"), "filter"))
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		s := New(collSource{mt.Coll})
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := s.FindByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("update sets only patched fields", func(mt *mtest.T) {
		s := New(collSource{mt.Coll})
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1},
		))
		price := 12.5

		res, err := s.UpdateByID(ctx, oid.Hex(), models.Patch{
			Price:  &price,
			Fields: map[string]any{"color": "red"},
		})
		require.NoError(mt, err)
		assert.Equal(mt, models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, res)
		cmd := nextCommand(mt, "update")
		assert.Equal(mt, bson.M{"_id": oid}, docAt(mt, cmd, "updates", "0", "q"))
		assert.Equal(mt, bson.M{"price": 12.5, "color": "red"}, docAt(mt, cmd, "updates", "0", "u", "$set"))
	})

	mt.Run("empty update counts instead of writing", func(mt *mtest.T) {
		s := New(collSource{mt.Coll})
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: 1}, {Key: "n", Value: int32(1)},
		}))

		res, err := s.UpdateByID(ctx, oid.Hex(), models.Patch{})
		require.NoError(mt, err)
		assert.Equal(mt, models.UpdateResult{Acknowledged: true, MatchedCount: 1}, res)
		assert.Equal(mt, bson.M{"_id": oid}, docAt(mt, nextCommand(mt, "aggregate"), "pipeline", "0", "$match"))
	})

	mt.Run("delete filters on id and owner", func(mt *mtest.T) {
		s := New(collSource{mt.Coll})
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		res, err := s.DeleteByID(ctx, oid.Hex(), models.Filter{Email: "a@x.com"})
		require.NoError(mt, err)
		assert.Equal(mt, int64(0), res.DeletedCount)
		assert.Equal(mt, bson.M{"_id": oid, "email": "a@x.com"}, docAt(mt, nextCommand(mt, "delete"), "deletes", "0", "q"))
	})
}
