// Package stats computes aggregates over a list of blogs. Nothing here does I/O.
package stats

import (
	"encoding/json"

	"github.com/alphabot-ai/bloglist/internal/model"
)

type Favorite struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

type AuthorBlogs struct {
	Author string `json:"author"`
	Blogs  int    `json:"blogs"`
}

type AuthorLikes struct {
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

func TotalLikes(blogs []model.Blog) int {
	total := 0
	for _, b := range blogs {
		total += b.Likes
	}
	return total
}

// FavoriteBlog returns the blog with the most likes. The first one wins a tie.
func FavoriteBlog(blogs []model.Blog) (Favorite, bool) {
	if len(blogs) == 0 {
		return Favorite{}, false
	}
	best := blogs[0]
	for _, b := range blogs[1:] {
		if b.Likes > best.Likes {
			best = b
		}
	}
	return Favorite{Title: best.Title, Author: best.Author, Likes: best.Likes}, true
}

// MostBlogs returns the author with the most entries. The running leader is
// only replaced on a strictly greater count, so the first author to reach the
// winning count wins a tie.
func MostBlogs(blogs []model.Blog) (AuthorBlogs, bool) {
	author, n, ok := leader(blogs, func(model.Blog) int { return 1 })
	return AuthorBlogs{Author: author, Blogs: n}, ok
}

// MostLikes returns the author with the highest summed likes, with the same
// tie-break as MostBlogs.
func MostLikes(blogs []model.Blog) (AuthorLikes, bool) {
	author, n, ok := leader(blogs, func(b model.Blog) int { return b.Likes })
	return AuthorLikes{Author: author, Likes: n}, ok
}

func leader(blogs []model.Blog, weight func(model.Blog) int) (string, int, bool) {
	if len(blogs) == 0 {
		return "", 0, false
	}
	totals := make(map[string]int)
	var author string
	best := -1
	for _, b := range blogs {
		totals[b.Author] += weight(b)
		if totals[b.Author] > best {
			author, best = b.Author, totals[b.Author]
		}
	}
	return author, best, true
}

// Summary bundles every aggregate. Nil fields mean the input was empty.
type Summary struct {
	Blogs        int
	TotalLikes   int
	FavoriteBlog *Favorite
	MostBlogs    *AuthorBlogs
	MostLikes    *AuthorLikes
}

func Summarize(blogs []model.Blog) Summary {
	s := Summary{Blogs: len(blogs), TotalLikes: TotalLikes(blogs)}
	if f, ok := FavoriteBlog(blogs); ok {
		s.FavoriteBlog = &f
	}
	if a, ok := MostBlogs(blogs); ok {
		s.MostBlogs = &a
	}
	if a, ok := MostLikes(blogs); ok {
		s.MostLikes = &a
	}
	return s
}

// MarshalJSON renders an empty result as {} rather than null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Blogs        int `json:"blogs"`
		TotalLikes   int `json:"totalLikes"`
		FavoriteBlog any `json:"favoriteBlog"`
		MostBlogs    any `json:"mostBlogs"`
		MostLikes    any `json:"mostLikes"`
	}{
		Blogs:        s.Blogs,
		TotalLikes:   s.TotalLikes,
		FavoriteBlog: orEmpty(s.FavoriteBlog),
		MostBlogs:    orEmpty(s.MostBlogs),
		MostLikes:    orEmpty(s.MostLikes),
	})
}

func orEmpty[T any](v *T) any {
	if v == nil {
		return struct{}{}
	}
	return v
}
