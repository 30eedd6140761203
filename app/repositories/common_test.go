package repositories

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetNextID(t *testing.T) {
	db := setupTestDB(t)

	t.Run("first ID", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, PostSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("sequential IDs", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			for i := 2; i <= 5; i++ {
				id, err := getNextID(txn, PostSeqKey)
				assert.NoError(t, err)
				assert.Equal(t, i, id)
			}
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("sequences are independent", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, CommentSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("corrupt sequence", func(t *testing.T) {
		require.NoError(t, db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte("seq:broken"), []byte{1})
		}))
		err := db.Update(func(txn *badger.Txn) error {
			_, err := getNextID(txn, "seq:broken")
			return err
		})
		assert.Error(t, err)
	})
}

func TestKeysSortNumerically(t *testing.T) {
	assert.Less(t, string(postKey(9)), string(postKey(10)))
	assert.Less(t, string(commentKey(1, 9)), string(commentKey(1, 10)))
	assert.Less(t, string(commentKey(2, 999)), string(commentKey(10, 1)))
	assert.Equal(t, "comment:0000000003:0000000012", string(commentKey(3, 12)))
}

func TestMarshalEntity(t *testing.T) {
	type entity struct {
		Name string `json:"name"`
	}

	data, err := marshalEntity(entity{Name: "x"})
	require.NoError(t, err)

	var out entity
	require.NoError(t, unmarshalEntity(data, &out))
	assert.Equal(t, "x", out.Name)

	assert.Error(t, unmarshalEntity([]byte("{"), &out))
	_, err = marshalEntity(make(chan int))
	assert.Error(t, err)
}
