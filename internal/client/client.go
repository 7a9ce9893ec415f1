// Package client provides a Go client for the Bloglist API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a Bloglist API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// New creates a new Bloglist client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Blog represents a blog from the API. User is nil for ownerless blogs.
type Blog struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  int    `json:"likes"`
	User   *Owner `json:"user"`
}

type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// User represents a user from the API.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Adult    bool     `json:"adult"`
	Blogs    []string `json:"blogs"`
}

// NewBlog is the body of a create request. Nil Likes lets the server default it.
type NewBlog struct {
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	URL    string `json:"url"`
	Likes  *int   `json:"likes,omitempty"`
}

// BlogChanges carries a partial update; nil fields are left out of the body.
type BlogChanges struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
	URL    *string `json:"url,omitempty"`
	Likes  *int    `json:"likes,omitempty"`
}

// NewUser is the body of a sign-up request.
type NewUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Adult    *bool  `json:"adult,omitempty"`
}

// Stats mirrors /api/stats. An empty result decodes to a zero value.
type Stats struct {
	Blogs        int `json:"blogs"`
	TotalLikes   int `json:"totalLikes"`
	FavoriteBlog struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		Likes  int    `json:"likes"`
	} `json:"favoriteBlog"`
	MostBlogs struct {
		Author string `json:"author"`
		Blogs  int    `json:"blogs"`
	} `json:"mostBlogs"`
	MostLikes struct {
		Author string `json:"author"`
		Likes  int    `json:"likes"`
	} `json:"mostLikes"`
}

// APIError is returned for any non-success response.
type APIError struct {
	Op      string
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s failed (%d): %s [%s]", e.Op, e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.Status, e.Message)
}

// CreateUser signs up a new user.
func (c *Client) CreateUser(in NewUser) (*User, error) {
	var user User
	if err := c.call("create user", http.MethodPost, "/api/users", in, http.StatusOK, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token and keeps it for later requests.
func (c *Client) Login(username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var result struct {
		Token string `json:"token"`
	}
	if err := c.call("login", http.MethodPost, "/api/login", body, http.StatusOK, &result); err != nil {
		return err
	}
	c.Token = result.Token
	return nil
}

// IsAuthenticated returns true if the client holds a token.
func (c *Client) IsAuthenticated() bool {
	return c.Token != ""
}

// ListBlogs fetches all blogs.
func (c *Client) ListBlogs() ([]Blog, error) {
	var blogs []Blog
	if err := c.call("list blogs", http.MethodGet, "/api/blogs", nil, http.StatusOK, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

// GetBlog fetches a single blog.
func (c *Client) GetBlog(id string) (*Blog, error) {
	var blog Blog
	if err := c.call("get blog", http.MethodGet, "/api/blogs/"+id, nil, http.StatusOK, &blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

// CreateBlog creates a blog owned by the logged-in user.
func (c *Client) CreateBlog(in NewBlog) (*Blog, error) {
	var blog Blog
	if err := c.call("create blog", http.MethodPost, "/api/blogs", in, http.StatusCreated, &blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

// UpdateBlog changes the fields set in changes.
func (c *Client) UpdateBlog(id string, changes BlogChanges) (*Blog, error) {
	var blog Blog
	if err := c.call("update blog", http.MethodPut, "/api/blogs/"+id, changes, http.StatusOK, &blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

// DeleteBlog deletes a blog you own.
func (c *Client) DeleteBlog(id string) error {
	return c.call("delete blog", http.MethodDelete, "/api/blogs/"+id, nil, http.StatusNoContent, nil)
}

// ListUsers fetches all users.
func (c *Client) ListUsers() ([]User, error) {
	var users []User
	if err := c.call("list users", http.MethodGet, "/api/users", nil, http.StatusOK, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Stats fetches the aggregates over all blogs.
func (c *Client) Stats() (*Stats, error) {
	var s Stats
	if err := c.call("stats", http.MethodGet, "/api/stats", nil, http.StatusOK, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) call(op, method, path string, body any, want int, out any) error {
	resp, err := c.doRequest(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{Op: op, Status: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Field = payload.Field
	} else {
		apiErr.Message = string(raw)
	}
	return apiErr
}

// doRequest performs an HTTP request, authenticated when a token is held.
func (c *Client) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.HTTPClient.Do(req)
}

// TestHelper provides utilities for creating authenticated clients in tests.
type TestHelper struct {
	BaseURL string
}

// NewTestHelper creates a new test helper for the given base URL.
func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{BaseURL: baseURL}
}

// CreateAuthenticatedClient signs up username with a fixed password and
// returns a logged-in client.
func (h *TestHelper) CreateAuthenticatedClient(username string) (*Client, *User, error) {
	c := New(h.BaseURL)
	user, err := c.CreateUser(NewUser{Username: username, Name: username, Password: TestPassword})
	if err != nil {
		return nil, nil, fmt.Errorf("sign up %s: %w", username, err)
	}
	if err := c.Login(username, TestPassword); err != nil {
		return nil, nil, fmt.Errorf("log in %s: %w", username, err)
	}
	return c, user, nil
}

// GetToken signs up username and returns its token.
func (h *TestHelper) GetToken(username string) (string, error) {
	c, _, err := h.CreateAuthenticatedClient(username)
	if err != nil {
		return "", err
	}
	return c.Token, nil
}

// TestPassword is the password CreateAuthenticatedClient signs users up with.
const TestPassword = "salainen"
