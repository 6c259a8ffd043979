// Package supabasetest provides an in-memory GoTrue and PostgREST fake for
// tests. It serves the subset of both APIs taskdeck uses.
package supabasetest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/colonyops/taskdeck/internal/core/task"
)

const (
	// AnonKey is the public key the fake accepts.
	AnonKey = "test-anon-key"
	// Table is the only table the fake serves.
	Table = "todos"
)

type user struct {
	id        string
	email     string
	hash      []byte
	confirmed bool
}

type failure struct {
	status  int
	code    string
	message string
}

// Server is a fake Supabase project.
type Server struct {
	*httptest.Server

	secret []byte

	mu          sync.Mutex
	now         func() time.Time
	tokenTTL    time.Duration
	autoConfirm bool
	users       map[string]*user  // by email
	refresh     map[string]string // refresh token to user id
	tasks       []task.Task
	fail        map[string]failure // by HTTP method
	requests    map[string]int     // by "METHOD /path"
	refreshHold *hold
}

type hold struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithTokenTTL sets the access token lifetime.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithEmailConfirmation makes sign-up return only the user until Confirm is
// called for that address.
func WithEmailConfirmation() Option {
	return func(s *Server) { s.autoConfirm = false }
}

// New starts a Server and closes it when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:      []byte("supabasetest-secret-" + uuid.NewString()),
		now:         time.Now,
		tokenTTL:    time.Hour,
		autoConfirm: true,
		users:       make(map[string]*user),
		refresh:     make(map[string]string),
		fail:        make(map[string]failure),
		requests:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.count, requireAPIKey)

	authGroup := r.Group("/auth/v1")
	authGroup.POST("/signup", s.signUp)
	authGroup.POST("/token", s.token)
	authGroup.POST("/logout", s.requireUser, s.logout)

	rest := r.Group("/rest/v1", s.requireUser, s.injectFailure, requireTable)
	rest.GET("/:table", s.listTasks)
	rest.POST("/:table", s.insertTask)
	rest.PATCH("/:table", s.updateTask)
	rest.DELETE("/:table", s.deleteTask)

	return r
}

// SetClock replaces the server's time source, used for token expiry and
// row timestamps.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddUser registers a confirmed account and returns its id.
func (s *Server) AddUser(t testing.TB, email, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{id: uuid.NewString(), email: email, hash: hash, confirmed: true}
	s.users[strings.ToLower(email)] = u
	return u.id
}

// Confirm marks the address as confirmed.
func (s *Server) Confirm(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[strings.ToLower(email)]; ok {
		u.confirmed = true
	}
}

// Seed stores tasks as-is. Missing ids and timestamps are filled in.
func (s *Server) Seed(tasks ...task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = s.now().UTC()
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
		s.tasks = append(s.tasks, t)
	}
}

// Tasks returns the stored tasks owned by userID in insertion order.
func (s *Server) Tasks(userID string) []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []task.Task
	for _, t := range s.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// FailNext makes the next REST request with the given method fail with
// status and a PostgREST error body.
func (s *Server) FailNext(method string, status int, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = failure{status: status, code: code, message: message}
}

// HoldRefresh parks the response of the next successful refresh_token
// grant. The new tokens are already issued when arrived is closed; release
// sends the response.
func (s *Server) HoldRefresh() (arrived <-chan struct{}, release func()) {
	h := &hold{arrived: make(chan struct{}), release: make(chan struct{})}

	s.mu.Lock()
	s.refreshHold = h
	s.mu.Unlock()

	return h.arrived, func() { h.once.Do(func() { close(h.release) }) }
}

// Requests returns how many requests hit method and path, e.g.
// Requests("PATCH", "/rest/v1/todos").
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

func (s *Server) count(c *gin.Context) {
	s.mu.Lock()
	s.requests[c.Request.Method+" "+c.Request.URL.Path]++
	s.mu.Unlock()
	c.Next()
}

func requireAPIKey(c *gin.Context) {
	if c.GetHeader("apikey") != AnonKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid API key"})
		return
	}
	c.Next()
}

func requireTable(c *gin.Context) {
	if table := c.Param("table"); table != "" && table != Table {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"code":    "42P01",
			"message": `relation "public.` + table + `" does not exist`,
		})
		return
	}
	c.Next()
}

func (s *Server) injectFailure(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.fail[c.Request.Method]
	delete(s.fail, c.Request.Method)
	s.mu.Unlock()

	if ok {
		c.AbortWithStatusJSON(f.status, gin.H{"code": f.code, "message": f.message, "details": nil, "hint": nil})
		return
	}
	c.Next()
}

// sortNewestFirst orders by created_at descending, stable on insertion order.
func sortNewestFirst(tasks []task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}
