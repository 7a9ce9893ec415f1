package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/alphabot-ai/bloglist/internal/client"
	"github.com/alphabot-ai/bloglist/internal/fixtures"
)

func main() {
	baseURL := flag.String("url", "http://localhost:3003", "Bloglist server URL")
	random := flag.Int("random", 0, "Extra random blogs to post per user")
	flag.Parse()

	log.Printf("Seeding bloglist at %s...\n", *baseURL)

	// Sign up every fixture user and log them in
	var clients []*client.Client
	for _, u := range fixtures.InitialUsers() {
		c := client.New(*baseURL)
		_, err := c.CreateUser(client.NewUser{Username: u.Username, Name: u.Name, Password: u.Password})
		var apiErr *client.APIError
		switch {
		case err == nil:
			log.Printf("✓ Created user: %s", u.Username)
		case errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && apiErr.Field == "username":
			log.Printf("• User %s already exists", u.Username)
		default:
			log.Fatalf("create user %s: %v", u.Username, err)
		}

		if err := c.Login(u.Username, u.Password); err != nil {
			log.Fatalf("login %s: %v", u.Username, err)
		}
		clients = append(clients, c)
	}

	// The canonical blogs all go to the first user
	posted := 0
	for _, b := range fixtures.InitialBlogs() {
		likes := b.Likes
		blog, err := clients[0].CreateBlog(client.NewBlog{Title: b.Title, Author: b.Author, URL: b.URL, Likes: &likes})
		if err != nil {
			log.Printf("✗ Failed to post blog: %v", err)
			continue
		}
		posted++
		log.Printf("✓ Posted blog %s: %s", blog.ID, blog.Title)
	}

	for i, c := range clients {
		for n := 0; n < *random; n++ {
			b := fixtures.RandomBlog()
			likes := b.Likes
			blog, err := c.CreateBlog(client.NewBlog{Title: b.Title, Author: b.Author, URL: b.URL, Likes: &likes})
			if err != nil {
				log.Printf("✗ Failed to post random blog: %v", err)
				continue
			}
			posted++
			log.Printf("✓ Posted blog %s: %s (by %s)", blog.ID, blog.Title, fixtures.InitialUsers()[i].Username)
		}
	}

	s, err := client.New(*baseURL).Stats()
	if err != nil {
		log.Fatalf("stats: %v", err)
	}

	// Print summary
	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("Users:        %d\n", len(clients))
	fmt.Printf("Blogs posted: %d\n", posted)
	fmt.Printf("Total likes:  %d\n", s.TotalLikes)
	fmt.Printf("Favorite:     %s (%d likes)\n", s.FavoriteBlog.Title, s.FavoriteBlog.Likes)
	fmt.Println("\nView at:", *baseURL+"/api/blogs")
}
