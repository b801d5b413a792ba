package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestNewRecord(t *testing.T) {
	r, err := newRecord("u1", []byte(`{"name":"alice","id":"stale"}`))
	require.NoError(t, err)
	assert.Equal(t, "u1", r.ID())
	assert.Equal(t, "u1", gjson.GetBytes(r.Doc, "id").String())

	_, err = newRecord("u1", []byte(`"scalar"`))
	require.Error(t, err)
}

func TestJSONCodec(t *testing.T) {
	r, err := newRecord("u1", []byte(`{"name":"alice"}`))
	require.NoError(t, err)

	doc, err := serializeJSON(r)
	require.NoError(t, err)
	got, err := deserializeJSON(doc)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = deserializeJSON([]byte(`{"name":"no id"}`))
	require.ErrorIs(t, err, errMissingID)
}

func TestBSONCodec(t *testing.T) {
	r, err := newRecord("u1", []byte(`{"name":"alice","n":2,"tags":["a","b"]}`))
	require.NoError(t, err)

	doc, err := serializeBSON(r)
	require.NoError(t, err)
	require.NotEmpty(t, doc)
	assert.Equal(t, bson.E{Key: "_id", Value: "u1"}, doc[0])
	for _, e := range doc[1:] {
		assert.NotEqual(t, "id", e.Key)
	}

	// 经过一次 BSON 编解码
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded bson.D
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	got, err := deserializeBSON(decoded)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID())
	assert.Equal(t, "alice", gjson.GetBytes(got.Doc, "name").String())
	assert.Equal(t, int64(2), gjson.GetBytes(got.Doc, "n").Int())
	assert.Equal(t, "u1", gjson.GetBytes(got.Doc, "id").String())
	assert.Len(t, gjson.GetBytes(got.Doc, "tags").Array(), 2)

	_, err = deserializeBSON(bson.D{{Key: "name", Value: "x"}})
	require.ErrorIs(t, err, errMissingID)
}
