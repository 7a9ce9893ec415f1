package model

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID identifies blogs and users in every store. It renders as 24 hex characters.
type ID = primitive.ObjectID

var ErrInvalidID = errors.New("malformatted id")

func NewID() ID {
	return primitive.NewObjectID()
}

// ParseID accepts only the 24-hex-character form.
func ParseID(s string) (ID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

type Blog struct {
	ID     ID     `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  int    `json:"likes"`
	UserID *ID    `json:"-"`
	Owner  *Owner `json:"user"`
}

// Owner is the projection of a user embedded in blog responses.
type Owner struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// BlogPatch carries a partial update. Nil fields keep their stored value.
type BlogPatch struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	URL    *string `json:"url"`
	Likes  *int    `json:"likes"`
}

func (p BlogPatch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.URL == nil && p.Likes == nil
}

func (p BlogPatch) Apply(b *Blog) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.URL != nil {
		b.URL = *p.URL
	}
	if p.Likes != nil {
		b.Likes = *p.Likes
	}
}

type User struct {
	ID           ID
	Username     string
	Name         string
	Adult        bool
	PasswordHash string
	Blogs        []ID
}

func (u User) View() UserView {
	blogs := u.Blogs
	if blogs == nil {
		blogs = []ID{}
	}
	return UserView{ID: u.ID, Username: u.Username, Name: u.Name, Adult: u.Adult, Blogs: blogs}
}

func (u User) Owner() Owner {
	return Owner{ID: u.ID, Username: u.Username, Name: u.Name}
}

// UserView is what the API exposes for a user; it never carries the hash.
type UserView struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Adult    bool   `json:"adult"`
	Blogs    []ID   `json:"blogs"`
}
