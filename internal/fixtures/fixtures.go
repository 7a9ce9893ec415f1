// Package fixtures holds the canonical seed data and random entity builders
// used by the seed command and by tests.
package fixtures

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/Pallinder/go-randomdata"

	"github.com/alphabot-ai/bloglist/internal/model"
)

// InitialBlogs returns a fresh copy of the canonical blog list.
func InitialBlogs() []model.Blog {
	return []model.Blog{
		{Title: "React patterns", Author: "Michael Chan", URL: "https://reactpatterns.com/", Likes: 7},
		{Title: "Go To Statement Considered Harmful", Author: "Edsger W. Dijkstra", URL: "http://www.u.arizona.edu/~rubinson/copyright_violations/Go_To_Considered_Harmful.html", Likes: 5},
		{Title: "Canonical string reduction", Author: "Edsger W. Dijkstra", URL: "http://www.cs.utexas.edu/~EWD/transcriptions/EWD08xx/EWD808.html", Likes: 12},
		{Title: "First class tests", Author: "Robert C. Martin", URL: "http://blog.cleancoder.com/uncle-bob/2017/05/05/TestDefinitions.htmll", Likes: 10},
		{Title: "TDD harms architecture", Author: "Robert C. Martin", URL: "http://blog.cleancoder.com/uncle-bob/2017/03/03/TDD-Harms-Architecture.html", Likes: 0},
		{Title: "Type wars", Author: "Robert C. Martin", URL: "http://blog.cleancoder.com/uncle-bob/2016/05/01/TypeWars.html", Likes: 2},
	}
}

// SeedUser is a user in plain form, before the password is hashed.
type SeedUser struct {
	Username string
	Name     string
	Password string
}

func InitialUsers() []SeedUser {
	return []SeedUser{
		{Username: "user", Name: "User", Password: "salainen"},
		{Username: "pasmpasm", Name: "Pavel Smirnov", Password: "salainen"},
	}
}

// randomdata is not safe for concurrent use.
var mu sync.Mutex

func RandomBlog() model.Blog {
	mu.Lock()
	defer mu.Unlock()
	return model.Blog{
		Title:  fmt.Sprintf("%s %s", randomdata.Adjective(), randomdata.Noun()),
		Author: randomdata.FullName(randomdata.RandomGender),
		URL:    fmt.Sprintf("https://%s.example.com/%s", randomdata.Noun(), randomdata.SillyName()),
		Likes:  rand.Intn(100),
	}
}

func RandomUser() SeedUser {
	mu.Lock()
	defer mu.Unlock()
	return SeedUser{
		Username: fmt.Sprintf("%s%d", randomdata.SillyName(), rand.Intn(1_000_000)),
		Name:     randomdata.FullName(randomdata.RandomGender),
		Password: randomdata.SillyName() + randomdata.Noun(),
	}
}
