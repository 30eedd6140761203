package repositories

import (
	"fmt"
	"strconv"

	"communityboard/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB.
// Comments live under comment:<postID>:<id> so a post's thread is one prefix
// scan; comment-post:<id> maps a comment id back to its post.
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

func storedComment(comment *models.Comment) *models.Comment {
	cp := comment.Clone()
	cp.Liked = false
	return cp
}

// Create creates a new comment
func (r *BadgerCommentRepository) Create(comment *models.Comment) error {
	return r.db.Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id

		data, err := marshalEntity(storedComment(comment))
		if err != nil {
			return err
		}

		if err := txn.Set(commentKey(comment.PostID, comment.ID), data); err != nil {
			return err
		}
		return txn.Set(commentIndexKey(comment.ID), encodeID(comment.PostID))
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(id int) (*models.Comment, error) {
	var comment models.Comment

	err := r.db.View(func(txn *badger.Txn) error {
		postID, err := lookupCommentPost(txn, id)
		if err != nil {
			return err
		}

		item, err := txn.Get(commentKey(postID, id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, &comment)
		})
	})

	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost retrieves all comments for a post in creation order
func (r *BadgerCommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := commentPrefix(postID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal comment: %w", err)
			}
			comments = append(comments, &comment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Update updates an existing comment. The comment cannot move to another post.
func (r *BadgerCommentRepository) Update(comment *models.Comment) error {
	return r.db.Update(func(txn *badger.Txn) error {
		postID, err := lookupCommentPost(txn, comment.ID)
		if err != nil {
			return err
		}
		if postID != comment.PostID {
			return fmt.Errorf("comment %d belongs to post %d, not %d", comment.ID, postID, comment.PostID)
		}

		data, err := marshalEntity(storedComment(comment))
		if err != nil {
			return err
		}
		return txn.Set(commentKey(postID, comment.ID), data)
	})
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		postID, err := lookupCommentPost(txn, id)
		if err != nil {
			return err
		}

		if err := txn.Delete(commentKey(postID, id)); err != nil {
			return err
		}
		return txn.Delete(commentIndexKey(id))
	})
}

// DeleteByPost removes every comment of a post
func (r *BadgerCommentRepository) DeleteByPost(postID int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)

		var ids []int
		prefix := commentPrefix(postID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			id, err := strconv.Atoi(string(key[len(prefix):]))
			if err != nil {
				err = fmt.Errorf("malformed comment key %q: %w", key, err)
				it.Close()
				return err
			}
			ids = append(ids, id)
		}
		it.Close()

		for _, id := range ids {
			if err := txn.Delete(commentKey(postID, id)); err != nil {
				return err
			}
			if err := txn.Delete(commentIndexKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
}
