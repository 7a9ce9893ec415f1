// Package mongo stores blogs and users in MongoDB, in the collection layout
// the bloglist API has always used: blogs reference their owner by "user",
// users keep the ids of their blogs in "blogs".
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/store"
)

const DefaultDatabase = "bloglist"

type Store struct {
	client *mongo.Client
	blogs  *mongo.Collection
	users  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

type blogDoc struct {
	ID     primitive.ObjectID  `bson:"_id"`
	Title  string              `bson:"title"`
	Author string              `bson:"author,omitempty"`
	URL    string              `bson:"url"`
	Likes  int                 `bson:"likes"`
	User   *primitive.ObjectID `bson:"user,omitempty"`
}

// blogRow is a blog after the owner $lookup.
type blogRow struct {
	blogDoc `bson:",inline"`
	Owner   []userDoc `bson:"owner"`
}

type userDoc struct {
	ID           primitive.ObjectID   `bson:"_id"`
	Username     string               `bson:"username"`
	Name         string               `bson:"name"`
	Adult        bool                 `bson:"adult"`
	PasswordHash string               `bson:"passwordHash"`
	Blogs        []primitive.ObjectID `bson:"blogs"`
}

// Open connects to uri. The database comes from the uri path, defaulting to
// DefaultDatabase.
func Open(ctx context.Context, uri string) (*Store, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("parse mongodb uri: %w", err)
	}
	name := cs.Database
	if name == "" {
		name = DefaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	st, err := New(ctx, client, client.Database(name))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return st, nil
}

// New uses db on an already connected client. Close disconnects the client.
func New(ctx context.Context, client *mongo.Client, db *mongo.Database) (*Store, error) {
	st := &Store{client: client, blogs: db.Collection("blogs"), users: db.Collection("users")}
	_, err := st.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create username index: %w", err)
	}
	return st, nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Store) InsertBlog(ctx context.Context, blog *model.Blog) error {
	doc := blogDoc{
		ID:     model.NewID(),
		Title:  blog.Title,
		Author: blog.Author,
		URL:    blog.URL,
		Likes:  blog.Likes,
		User:   blog.UserID,
	}
	if _, err := s.blogs.InsertOne(ctx, doc); err != nil {
		return err
	}
	blog.ID = doc.ID
	return nil
}

func (s *Store) GetBlog(ctx context.Context, id model.ID) (model.Blog, error) {
	blogs, err := s.findBlogs(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return model.Blog{}, err
	}
	if len(blogs) == 0 {
		return model.Blog{}, store.ErrNotFound
	}
	return blogs[0], nil
}

func (s *Store) ListBlogs(ctx context.Context) ([]model.Blog, error) {
	return s.findBlogs(ctx, bson.D{})
}

func (s *Store) findBlogs(ctx context.Context, filter bson.D) ([]model.Blog, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: s.users.Name()},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "owner"},
		}}},
	}
	cur, err := s.blogs.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	blogs := []model.Blog{}
	for cur.Next(ctx) {
		var row blogRow
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		blogs = append(blogs, row.model())
	}
	return blogs, cur.Err()
}

func (r blogRow) model() model.Blog {
	b := model.Blog{
		ID:     r.ID,
		Title:  r.Title,
		Author: r.Author,
		URL:    r.URL,
		Likes:  r.Likes,
		UserID: r.User,
	}
	if len(r.Owner) > 0 {
		o := r.Owner[0]
		b.Owner = &model.Owner{ID: o.ID, Username: o.Username, Name: o.Name}
	}
	return b
}

func (s *Store) UpdateBlog(ctx context.Context, id model.ID, patch model.BlogPatch) (model.Blog, error) {
	set := bson.D{}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Author != nil {
		set = append(set, bson.E{Key: "author", Value: *patch.Author})
	}
	if patch.URL != nil {
		set = append(set, bson.E{Key: "url", Value: *patch.URL})
	}
	if patch.Likes != nil {
		set = append(set, bson.E{Key: "likes", Value: *patch.Likes})
	}
	if len(set) == 0 {
		return s.GetBlog(ctx, id)
	}

	res, err := s.blogs.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return model.Blog{}, err
	}
	if res.MatchedCount == 0 {
		return model.Blog{}, store.ErrNotFound
	}
	return s.GetBlog(ctx, id)
}

func (s *Store) DeleteBlog(ctx context.Context, id model.ID) error {
	res, err := s.blogs.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) InsertUser(ctx context.Context, user *model.User) error {
	doc := userDoc{
		ID:           model.NewID(),
		Username:     user.Username,
		Name:         user.Name,
		Adult:        user.Adult,
		PasswordHash: user.PasswordHash,
		Blogs:        []primitive.ObjectID{},
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateUsername
		}
		return err
	}
	user.ID = doc.ID
	user.Blogs = []model.ID{}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id model.ID) (model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "username", Value: username}})
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (model.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	return doc.model(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	cur, err := s.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []model.User{}
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		users = append(users, doc.model())
	}
	return users, cur.Err()
}

func (s *Store) AppendUserBlog(ctx context.Context, userID, blogID model.ID) error {
	res, err := s.users.UpdateByID(ctx, userID, bson.D{{Key: "$push", Value: bson.D{{Key: "blogs", Value: blogID}}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (d userDoc) model() model.User {
	blogs := d.Blogs
	if blogs == nil {
		blogs = []model.ID{}
	}
	return model.User{
		ID:           d.ID,
		Username:     d.Username,
		Name:         d.Name,
		Adult:        d.Adult,
		PasswordHash: d.PasswordHash,
		Blogs:        blogs,
	}
}
