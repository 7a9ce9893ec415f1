package httpapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
	"go.yaml.in/yaml/v3"

	_ "github.com/alphabot-ai/bloglist/docs" // swagger docs

	"github.com/alphabot-ai/bloglist/internal/auth"
	"github.com/alphabot-ai/bloglist/internal/config"
	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/service"
	"github.com/alphabot-ai/bloglist/internal/store"
)

const internalErrorMessage = "something went wrong..."

type Server struct {
	blogs   *service.Blogs
	users   *service.Users
	cfg     config.Config
	handler http.Handler
}

func NewServer(st store.Store, tokens *auth.Tokens, cfg config.Config) *Server {
	s := &Server{
		blogs: service.NewBlogs(st, st, tokens),
		users: service.NewUsers(st, auth.NewCredentials(st, cfg.BcryptCost), tokens),
		cfg:   cfg,
	}
	s.handler = logRequests(s.routes())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() *httprouter.Router {
	router := httprouter.New()

	router.GET("/api/blogs", s.handleListBlogs)
	router.POST("/api/blogs", s.handleCreateBlog)
	router.GET("/api/blogs/:id", s.handleGetBlog)
	router.PUT("/api/blogs/:id", s.handleUpdateBlog)
	router.DELETE("/api/blogs/:id", s.handleDeleteBlog)

	router.GET("/api/users", s.handleListUsers)
	router.POST("/api/users", s.handleCreateUser)
	router.POST("/api/login", s.handleLogin)

	router.GET("/api/stats", s.handleStats)
	router.GET("/api/version", s.handleVersion)

	router.GET("/api/openapi.json", s.serveOpenAPIJSON)
	router.GET("/api/openapi.yaml", s.serveOpenAPIYAML)
	router.Handler(http.MethodGet, "/swagger/*any", httpSwagger.WrapHandler)

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("unknown endpoint"))
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		log.Printf("panic serving %s %s [%s]: %v", r.Method, r.URL.Path, requestID(r), v)
		writeError(w, http.StatusInternalServerError, errors.New(internalErrorMessage))
	}
	return router
}

// handleListBlogs godoc
//
//	@Summary		List blogs
//	@Description	All blogs, each with its owner resolved to {id, username, name} or null.
//	@Tags			Blogs
//	@Produce		json
//	@Success		200	{array}		model.Blog
//	@Failure		500	{object}	errorResponse
//	@Router			/api/blogs [get]
func (s *Server) handleListBlogs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	blogs, err := s.blogs.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blogs)
}

// handleGetBlog godoc
//
//	@Summary	Get a blog
//	@Tags		Blogs
//	@Produce	json
//	@Param		id	path		string	true	"Blog ID (24 hex characters)"
//	@Success	200	{object}	model.Blog
//	@Failure	400	{object}	errorResponse	"Malformatted id"
//	@Failure	404	{object}	errorResponse	"Blog not found"
//	@Router		/api/blogs/{id} [get]
func (s *Server) handleGetBlog(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	blog, err := s.blogs.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blog)
}

// handleCreateBlog godoc
//
//	@Summary		Create a blog
//	@Description	Creates a blog owned by the token's user. Likes default to 0.
//	@Tags			Blogs
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			blog	body		service.BlogInput	true	"Blog"
//	@Success		201		{object}	model.Blog
//	@Failure		400		{object}	errorResponse	"Validation error"
//	@Failure		401		{object}	errorResponse	"Token missing or invalid"
//	@Router			/api/blogs [post]
func (s *Server) handleCreateBlog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in service.BlogInput
	if err := readJSON(r.Body, &in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	blog, err := s.blogs.Create(r.Context(), bearerToken(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, blog)
}

// handleUpdateBlog godoc
//
//	@Summary		Update a blog
//	@Description	Changes only the fields present in the body. No token is required.
//	@Tags			Blogs
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Blog ID (24 hex characters)"
//	@Param			blog	body		model.BlogPatch	true	"Fields to change"
//	@Success		200		{object}	model.Blog
//	@Failure		400		{object}	errorResponse	"Malformatted id or validation error"
//	@Failure		404		{object}	errorResponse	"Blog not found"
//	@Router			/api/blogs/{id} [put]
func (s *Server) handleUpdateBlog(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var patch model.BlogPatch
	if err := readJSON(r.Body, &patch); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	blog, err := s.blogs.Update(r.Context(), ps.ByName("id"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blog)
}

// handleDeleteBlog godoc
//
//	@Summary		Delete a blog
//	@Description	Only the owner may delete an owned blog. Ownerless blogs can be deleted by any authenticated user.
//	@Tags			Blogs
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Blog ID (24 hex characters)"
//	@Success		204
//	@Failure		400	{object}	errorResponse	"Malformatted id"
//	@Failure		401	{object}	errorResponse	"Token missing or invalid"
//	@Failure		403	{object}	errorResponse	"Not the owner"
//	@Failure		404	{object}	errorResponse	"Blog not found"
//	@Router			/api/blogs/{id} [delete]
func (s *Server) handleDeleteBlog(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.blogs.Remove(r.Context(), bearerToken(r), ps.ByName("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListUsers godoc
//
//	@Summary	List users
//	@Tags		Users
//	@Produce	json
//	@Success	200	{array}	model.UserView
//	@Router		/api/users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleCreateUser godoc
//
//	@Summary		Create a user
//	@Description	Usernames are unique and case-sensitive. Passwords need at least 3 characters. Adult defaults to true.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			user	body		service.UserInput	true	"User"
//	@Success		200		{object}	model.UserView
//	@Failure		400		{object}	errorResponse	"Validation error"
//	@Router			/api/users [post]
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in service.UserInput
	if err := readJSON(r.Body, &in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	user, err := s.users.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleLogin godoc
//
//	@Summary	Log in
//	@Tags		Users
//	@Accept		json
//	@Produce	json
//	@Param		credentials	body		object{username=string,password=string}	true	"Credentials"
//	@Success	200			{object}	service.Login
//	@Failure	401			{object}	errorResponse	"Invalid username or password"
//	@Router		/api/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	login, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, login)
}

// handleStats godoc
//
//	@Summary		Blog statistics
//	@Description	Total likes, favorite blog, author with most blogs and author with most likes. Empty results render as {}.
//	@Tags			Stats
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/api/stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	summary, err := s.blogs.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    s.cfg.Version,
		"commit":     s.cfg.Commit,
		"build_time": s.cfg.BuildTime,
	})
}

func (s *Server) serveOpenAPIJSON(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	doc, err := swag.ReadDoc()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}

func (s *Server) serveOpenAPIYAML(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	doc, err := swag.ReadDoc()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var tree any
	if err := json.Unmarshal([]byte(doc), &tree); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml; charset=utf-8")
	_, _ = w.Write(out)
}

// bearerToken returns the token of an "Authorization: bearer <token>" header.
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) string {
	const scheme = "bearer "
	header := r.Header.Get("Authorization")
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return ""
	}
	return strings.TrimSpace(header[len(scheme):])
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// fail maps a service error to its status. Anything unclassified is logged
// and answered with a generic 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, service.ErrMalformedID):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, errors.New("blog not found"))
	default:
		log.Printf("%s %s [%s]: %v", r.Method, r.URL.Path, requestID(r), err)
		writeError(w, http.StatusInternalServerError, errors.New(internalErrorMessage))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
