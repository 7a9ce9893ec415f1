// Package bolt keeps blogs and users in a single BoltDB file.
package bolt

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/boltdb/bolt"

	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/store"
)

var (
	blogsBucket     = []byte("blogs")
	usersBucket     = []byte("users")
	usernamesBucket = []byte("usernames")
)

type Store struct {
	db *bolt.DB
}

var _ store.Store = (*Store)(nil)

type blogRecord struct {
	Title  string
	Author string
	URL    string
	Likes  int
	User   []byte
}

type userRecord struct {
	Username     string
	Name         string
	Adult        bool
	PasswordHash string
	Blogs        [][]byte
}

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{blogsBucket, usersBucket, usernamesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close the database and release the file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InsertBlog(_ context.Context, blog *model.Blog) error {
	id := model.NewID()
	rec := blogRecord{Title: blog.Title, Author: blog.Author, URL: blog.URL, Likes: blog.Likes}
	if blog.UserID != nil {
		rec.User = key(*blog.UserID)
	}
	value, err := encode(rec)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blogsBucket).Put(key(id), value)
	})
	if err != nil {
		return err
	}
	blog.ID = id
	return nil
}

func (s *Store) GetBlog(_ context.Context, id model.ID) (model.Blog, error) {
	var blog model.Blog
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(blogsBucket).Get(key(id))
		if raw == nil {
			return store.ErrNotFound
		}
		var err error
		blog, err = blogFrom(tx, id[:], raw)
		return err
	})
	return blog, err
}

// ListBlogs walks the bucket in key order. Keys are object ids, so this is
// creation order.
func (s *Store) ListBlogs(_ context.Context) ([]model.Blog, error) {
	blogs := []model.Blog{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(blogsBucket).ForEach(func(k, v []byte) error {
			blog, err := blogFrom(tx, k, v)
			if err != nil {
				return err
			}
			blogs = append(blogs, blog)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return blogs, nil
}

func (s *Store) UpdateBlog(_ context.Context, id model.ID, patch model.BlogPatch) (model.Blog, error) {
	var blog model.Blog
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(blogsBucket)
		raw := bucket.Get(key(id))
		if raw == nil {
			return store.ErrNotFound
		}
		var rec blogRecord
		if err := decode(raw, &rec); err != nil {
			return err
		}
		if patch.Title != nil {
			rec.Title = *patch.Title
		}
		if patch.Author != nil {
			rec.Author = *patch.Author
		}
		if patch.URL != nil {
			rec.URL = *patch.URL
		}
		if patch.Likes != nil {
			rec.Likes = *patch.Likes
		}
		value, err := encode(rec)
		if err != nil {
			return err
		}
		if err := bucket.Put(key(id), value); err != nil {
			return err
		}
		blog, err = blogFrom(tx, id[:], value)
		return err
	})
	return blog, err
}

func (s *Store) DeleteBlog(_ context.Context, id model.ID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(blogsBucket)
		if bucket.Get(key(id)) == nil {
			return store.ErrNotFound
		}
		return bucket.Delete(key(id))
	})
}

func (s *Store) InsertUser(_ context.Context, user *model.User) error {
	id := model.NewID()
	value, err := encode(userRecord{
		Username:     user.Username,
		Name:         user.Name,
		Adult:        user.Adult,
		PasswordHash: user.PasswordHash,
	})
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(usernamesBucket)
		if names.Get([]byte(user.Username)) != nil {
			return store.ErrDuplicateUsername
		}
		if err := names.Put([]byte(user.Username), key(id)); err != nil {
			return err
		}
		return tx.Bucket(usersBucket).Put(key(id), value)
	})
	if err != nil {
		return err
	}
	user.ID = id
	user.Blogs = []model.ID{}
	return nil
}

func (s *Store) GetUser(_ context.Context, id model.ID) (model.User, error) {
	var user model.User
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		user, err = userFrom(tx, key(id))
		return err
	})
	return user, err
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (model.User, error) {
	var user model.User
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(usernamesBucket).Get([]byte(username))
		if id == nil {
			return store.ErrNotFound
		}
		var err error
		user, err = userFrom(tx, id)
		return err
	})
	return user, err
}

func (s *Store) ListUsers(_ context.Context) ([]model.User, error) {
	users := []model.User{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(usersBucket).ForEach(func(k, _ []byte) error {
			user, err := userFrom(tx, k)
			if err != nil {
				return err
			}
			users = append(users, user)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) AppendUserBlog(_ context.Context, userID, blogID model.ID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(usersBucket)
		raw := bucket.Get(key(userID))
		if raw == nil {
			return store.ErrNotFound
		}
		var rec userRecord
		if err := decode(raw, &rec); err != nil {
			return err
		}
		rec.Blogs = append(rec.Blogs, key(blogID))
		value, err := encode(rec)
		if err != nil {
			return err
		}
		return bucket.Put(key(userID), value)
	})
}

func blogFrom(tx *bolt.Tx, k, v []byte) (model.Blog, error) {
	var rec blogRecord
	if err := decode(v, &rec); err != nil {
		return model.Blog{}, err
	}
	blog := model.Blog{
		ID:     idFrom(k),
		Title:  rec.Title,
		Author: rec.Author,
		URL:    rec.URL,
		Likes:  rec.Likes,
	}
	if rec.User == nil {
		return blog, nil
	}
	uid := idFrom(rec.User)
	blog.UserID = &uid
	if raw := tx.Bucket(usersBucket).Get(rec.User); raw != nil {
		var owner userRecord
		if err := decode(raw, &owner); err != nil {
			return model.Blog{}, err
		}
		blog.Owner = &model.Owner{ID: uid, Username: owner.Username, Name: owner.Name}
	}
	return blog, nil
}

func userFrom(tx *bolt.Tx, k []byte) (model.User, error) {
	raw := tx.Bucket(usersBucket).Get(k)
	if raw == nil {
		return model.User{}, store.ErrNotFound
	}
	var rec userRecord
	if err := decode(raw, &rec); err != nil {
		return model.User{}, err
	}
	user := model.User{
		ID:           idFrom(k),
		Username:     rec.Username,
		Name:         rec.Name,
		Adult:        rec.Adult,
		PasswordHash: rec.PasswordHash,
		Blogs:        make([]model.ID, 0, len(rec.Blogs)),
	}
	for _, b := range rec.Blogs {
		user.Blogs = append(user.Blogs, idFrom(b))
	}
	return user, nil
}

func key(id model.ID) []byte {
	k := make([]byte, len(id))
	copy(k, id[:])
	return k
}

// idFrom copies k; bolt slices are only valid inside the transaction.
func idFrom(k []byte) model.ID {
	var id model.ID
	copy(id[:], k)
	return id
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
