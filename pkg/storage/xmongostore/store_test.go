package xmongostore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mopts "go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xstore/pkg/codec/xbsoncodec"
	"github.com/omeyang/xstore/pkg/model/xmodel"
)

type user struct {
	id   string
	Name string
	Age  int64
}

func (u *user) ID() string { return u.id }

func serializeUser(u *user) (bson.D, error) {
	return xbsoncodec.NewWriterFor(u).
		WriteString("name", u.Name).
		WriteInt64("age", u.Age).
		End()
}

func deserializeUser(doc bson.D) (*user, error) {
	id, ok := xbsoncodec.ID(doc)
	if !ok {
		return nil, errors.New("missing _id")
	}
	r := xbsoncodec.NewReader(doc)
	return &user{id: id, Name: r.ReadString("name"), Age: r.ReadInt64("age")}, nil
}

func docOf(t *testing.T, u *user) bson.D {
	t.Helper()
	doc, err := serializeUser(u)
	require.NoError(t, err)
	return doc
}

func newTestStore(t *testing.T, opts ...Option) (*Store[*user], *Mockcollection) {
	t.Helper()
	ctrl := gomock.NewController(t)
	coll := NewMockcollection(ctrl)
	coll.EXPECT().Name().Return("users").AnyTimes()

	s, err := newStore(coll, serializeUser, deserializeUser, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, coll
}

func cursorOf(t *testing.T, docs ...bson.D) *mongo.Cursor {
	t.Helper()
	items := make([]any, len(docs))
	for i, d := range docs {
		items[i] = d
	}
	cur, err := mongo.NewCursorFromDocuments(items, nil, nil)
	require.NoError(t, err)
	return cur
}

func TestNew_Validation(t *testing.T) {
	_, err := New[*user](nil, serializeUser, deserializeUser)
	require.ErrorIs(t, err, ErrNilCollection)

	ctrl := gomock.NewController(t)
	coll := NewMockcollection(ctrl)
	_, err = newStore[*user](coll, nil, deserializeUser)
	require.ErrorIs(t, err, ErrNilCodec)
}

func TestStore_Describe(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, xmodel.Description{System: "mongodb", Collection: "users"}, s.Describe())
}

func TestStore_Find(t *testing.T) {
	s, coll := newTestStore(t)
	ctx := context.Background()
	alice := &user{id: "u1", Name: "alice", Age: 30}

	coll.EXPECT().FindOne(gomock.Any(), byID("u1")).
		Return(mongo.NewSingleResultFromDocument(docOf(t, alice), nil, nil))
	got, err := s.Find(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	coll.EXPECT().FindOne(gomock.Any(), byID("u2")).
		Return(mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil))
	_, err = s.Find(ctx, "u2")
	assert.True(t, xmodel.IsNotFound(err))

	boom := errors.New("connection reset")
	coll.EXPECT().FindOne(gomock.Any(), byID("u3")).
		Return(mongo.NewSingleResultFromDocument(bson.D{}, boom, nil))
	_, err = s.Find(ctx, "u3")
	require.ErrorIs(t, err, boom)
	assert.False(t, xmodel.IsNotFound(err))

	_, err = s.Find(ctx, "")
	require.ErrorIs(t, err, xmodel.ErrEmptyID)
}

func TestStore_Exists(t *testing.T) {
	s, coll := newTestStore(t)
	ctx := context.Background()

	coll.EXPECT().CountDocuments(gomock.Any(), byID("u1"), gomock.Any()).Return(int64(1), nil)
	ok, err := s.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	coll.EXPECT().CountDocuments(gomock.Any(), byID("u2"), gomock.Any()).Return(int64(0), nil)
	ok, err = s.Exists(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SaveUpserts(t *testing.T) {
	s, coll := newTestStore(t)
	alice := &user{id: "u1", Name: "alice", Age: 30}

	coll.EXPECT().ReplaceOne(gomock.Any(), byID("u1"), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, replacement any, opts ...mopts.Lister[mopts.ReplaceOptions]) (*mongo.UpdateResult, error) {
			doc, ok := replacement.(bson.D)
			require.True(t, ok)
			assert.Equal(t, xbsoncodec.IDField, doc[0].Key)
			assert.Equal(t, "u1", doc[0].Value)

			require.Len(t, opts, 1)
			var ro mopts.ReplaceOptions
			for _, set := range opts[0].List() {
				require.NoError(t, set(&ro))
			}
			require.NotNil(t, ro.Upsert)
			assert.True(t, *ro.Upsert)
			return &mongo.UpdateResult{UpsertedCount: 1}, nil
		})

	got, err := s.Save(context.Background(), alice)
	require.NoError(t, err)
	assert.Same(t, alice, got)
}

func TestStore_SaveAddsMissingID(t *testing.T) {
	ctrl := gomock.NewController(t)
	coll := NewMockcollection(ctrl)
	coll.EXPECT().Name().Return("users").AnyTimes()

	noID := func(u *user) (bson.D, error) {
		return xbsoncodec.NewWriter().WriteString("name", u.Name).End()
	}
	s, err := newStore(coll, noID, deserializeUser)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	want := bson.D{{Key: "_id", Value: "u1"}, {Key: "name", Value: "alice"}}
	coll.EXPECT().ReplaceOne(gomock.Any(), byID("u1"), want, gomock.Any()).Return(&mongo.UpdateResult{}, nil)
	_, err = s.Save(context.Background(), &user{id: "u1", Name: "alice"})
	require.NoError(t, err)
}

func TestStore_SaveRejectsMismatchedID(t *testing.T) {
	ctrl := gomock.NewController(t)
	coll := NewMockcollection(ctrl)
	coll.EXPECT().Name().Return("users").AnyTimes()

	wrongID := func(u *user) (bson.D, error) {
		return bson.D{{Key: "_id", Value: "other"}}, nil
	}
	s, err := newStore(coll, wrongID, deserializeUser)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Save(context.Background(), &user{id: "u1"})
	require.ErrorIs(t, err, ErrIDMismatch)
}

func TestStore_SaveValidation(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Save(context.Background(), nil)
	require.Error(t, err)
}

func TestStore_Delete(t *testing.T) {
	s, coll := newTestStore(t)
	ctx := context.Background()

	coll.EXPECT().DeleteOne(gomock.Any(), byID("u1")).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)
	ok, err := s.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	coll.EXPECT().DeleteOne(gomock.Any(), byID("u2")).Return(&mongo.DeleteResult{}, nil)
	ok, err = s.Delete(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DeleteAndRetrieve(t *testing.T) {
	s, coll := newTestStore(t)
	ctx := context.Background()
	alice := &user{id: "u1", Name: "alice", Age: 30}

	coll.EXPECT().FindOneAndDelete(gomock.Any(), byID("u1")).
		Return(mongo.NewSingleResultFromDocument(docOf(t, alice), nil, nil))
	got, err := s.DeleteAndRetrieve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	coll.EXPECT().FindOneAndDelete(gomock.Any(), byID("u1")).
		Return(mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil))
	_, err = s.DeleteAndRetrieve(ctx, "u1")
	assert.True(t, xmodel.IsNotFound(err))
}

func TestStore_DeleteAll(t *testing.T) {
	s, coll := newTestStore(t)
	coll.EXPECT().DeleteMany(gomock.Any(), bson.D{}).Return(&mongo.DeleteResult{DeletedCount: 3}, nil)
	require.NoError(t, s.DeleteAll(context.Background()))
}

func TestStore_FindAll(t *testing.T) {
	s, coll := newTestStore(t)
	alice := &user{id: "u1", Name: "alice", Age: 30}
	bob := &user{id: "u2", Name: "bob", Age: 40}

	coll.EXPECT().Find(gomock.Any(), bson.D{}, gomock.Any()).
		Return(cursorOf(t, docOf(t, alice), docOf(t, bob)), nil)

	var loaded []string
	got, err := s.FindAll(context.Background(), func(u *user) { loaded = append(loaded, u.id) })
	require.NoError(t, err)
	assert.Equal(t, []*user{alice, bob}, got)
	assert.Equal(t, []string{"u1", "u2"}, loaded)
}

func TestStore_EmptyCollectionsAreNotNil(t *testing.T) {
	s, coll := newTestStore(t)
	ctx := context.Background()

	coll.EXPECT().Find(gomock.Any(), bson.D{}, gomock.Any()).Return(cursorOf(t), nil).Times(2)

	all, err := s.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	ids, err := s.FindIDs(ctx)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestStore_FindIDsProjectsID(t *testing.T) {
	s, coll := newTestStore(t, WithBatchSize(10))

	coll.EXPECT().Find(gomock.Any(), bson.D{}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ any, opts ...mopts.Lister[mopts.FindOptions]) (*mongo.Cursor, error) {
			require.Len(t, opts, 1)
			var fo mopts.FindOptions
			for _, set := range opts[0].List() {
				require.NoError(t, set(&fo))
			}
			assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, fo.Projection)
			require.NotNil(t, fo.BatchSize)
			assert.Equal(t, int32(10), *fo.BatchSize)
			return cursorOf(t, bson.D{{Key: "_id", Value: "u1"}}, bson.D{{Key: "_id", Value: "u2"}}), nil
		})

	ids, err := s.FindIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)
}

func TestStore_ForEachStopsOnError(t *testing.T) {
	s, coll := newTestStore(t)
	docs := []bson.D{
		docOf(t, &user{id: "u1"}),
		docOf(t, &user{id: "u2"}),
		docOf(t, &user{id: "u3"}),
	}
	coll.EXPECT().Find(gomock.Any(), bson.D{}, gomock.Any()).Return(cursorOf(t, docs...), nil)

	stop := errors.New("stop")
	var seen []string
	err := s.ForEach(context.Background(), func(u *user) error {
		seen = append(seen, u.id)
		if len(seen) == 2 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"u1", "u2"}, seen)
}

func TestStore_ForEachID(t *testing.T) {
	s, coll := newTestStore(t)
	coll.EXPECT().Find(gomock.Any(), bson.D{}, gomock.Any()).
		Return(cursorOf(t, bson.D{{Key: "_id", Value: "u1"}}), nil)

	var seen []string
	require.NoError(t, s.ForEachID(context.Background(), func(id string) error {
		seen = append(seen, id)
		return nil
	}))
	assert.Equal(t, []string{"u1"}, seen)
}

func TestStore_FindByField(t *testing.T) {
	s, coll := newTestStore(t)
	bob := &user{id: "u2", Name: "bob", Age: 40}

	coll.EXPECT().Find(gomock.Any(), bson.D{{Key: "name", Value: "bob"}}, gomock.Any()).
		Return(cursorOf(t, docOf(t, bob)), nil)

	got, err := s.FindByField(context.Background(), "name", "bob")
	require.NoError(t, err)
	assert.Equal(t, []*user{bob}, got)

	_, err = s.FindByField(context.Background(), "", "bob")
	require.ErrorIs(t, err, ErrEmptyField)
}

func TestStore_FindError(t *testing.T) {
	s, coll := newTestStore(t)
	boom := errors.New("server selection timeout")
	coll.EXPECT().Find(gomock.Any(), bson.D{}, gomock.Any()).Return(nil, boom)

	_, err := s.FindAll(context.Background(), nil)
	require.ErrorIs(t, err, boom)
}

func TestStore_Count(t *testing.T) {
	s, coll := newTestStore(t)
	coll.EXPECT().CountDocuments(gomock.Any(), bson.D{}).Return(int64(7), nil)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestStore_Stats(t *testing.T) {
	s, coll := newTestStore(t)
	ctx := context.Background()
	coll.EXPECT().DeleteOne(gomock.Any(), byID("u1")).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)
	coll.EXPECT().DeleteOne(gomock.Any(), byID("u2")).Return(nil, errors.New("write concern"))

	_, err := s.Delete(ctx, "u1")
	require.NoError(t, err)
	_, err = s.Delete(ctx, "u2")
	require.Error(t, err)

	stats := s.Stats()
	assert.Equal(t, int64(2), stats.Operations)
	assert.Equal(t, int64(1), stats.Errors)
}

func TestStore_AsFallbackTarget(t *testing.T) {
	s, coll := newTestStore(t)
	cache := xmodel.NewMapRepository[*user]()
	alice := &user{id: "u1", Name: "alice", Age: 30}

	repo, err := xmodel.NewFallbackRepository[*user](cache, s)
	require.NoError(t, err)

	coll.EXPECT().FindOne(gomock.Any(), byID("u1")).
		Return(mongo.NewSingleResultFromDocument(docOf(t, alice), nil, nil))
	got, err := repo.FindInBoth(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestStore_Health(t *testing.T) {
	s, coll := newTestStore(t)
	ctx := context.Background()

	coll.EXPECT().CountDocuments(gomock.Any(), bson.D{}, gomock.Any()).Return(int64(0), nil)
	require.NoError(t, s.Health(ctx))

	down := errors.New("server selection timeout")
	s.ping = func(context.Context) error { return down }
	assert.ErrorIs(t, s.Health(ctx), down)

	stats := s.Stats()
	assert.Equal(t, int64(2), stats.PingCount)
	assert.Equal(t, int64(1), stats.PingErrors)
}
