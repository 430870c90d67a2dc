// Package backendtest serves an in-memory imitation of the backend REST API
// for tests.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
)

type Call struct {
	Method string
	Path   string
	Key    string
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	nextUser    int
	users       map[string]bool
	profiles    map[string]json.RawMessage
	sessions    map[string][]json.RawMessage
	sessionUser map[string]string
	unlocked    map[string]map[string]bool
	calls       []Call
	failStatus  int
	failNext    int
	healthy     bool
}

func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		users:       map[string]bool{},
		profiles:    map[string]json.RawMessage{},
		sessions:    map[string][]json.RawMessage{},
		sessionUser: map[string]string{},
		unlocked:    map[string]map[string]bool{},
		healthy:     true,
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// BaseURL is the API root the client should be configured with.
func (s *Server) BaseURL() string { return s.URL + "/api" }

// FailWith makes every non-health request answer status until cleared with 0.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	s.failStatus = status
	s.mu.Unlock()
}

// FailNext makes the next n non-health requests answer 503.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

func (s *Server) SetHealthy(healthy bool) {
	s.mu.Lock()
	s.healthy = healthy
	s.mu.Unlock()
}

// Calls returns the successfully handled mutating calls in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Server) SessionIDs(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for _, raw := range s.sessions[userID] {
		out = append(out, recordID(raw))
	}
	return out
}

func (s *Server) Profile(userID string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[userID]
}

// SeedSession stores a session as if another device had created it.
func (s *Server) SeedSession(userID string, session json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = true
	s.sessions[userID] = append(s.sessions[userID], session)
	s.sessionUser[recordID(session)] = userID
}

func (s *Server) SeedProfile(userID string, profile json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = true
	s.profiles[userID] = profile
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.GET("/api/health", func(c *gin.Context) {
		s.mu.Lock()
		healthy := s.healthy
		s.mu.Unlock()
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	api := r.Group("/api", s.failureInjector)
	api.POST("/auth/login", s.login)
	api.GET("/profile/:userId", s.getProfile)
	api.PUT("/profile/:userId", s.putProfile)
	api.POST("/profile/:userId/xp", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	api.GET("/sessions/:userId", s.listSessions)
	api.POST("/sessions/:userId", s.createSession)
	api.DELETE("/sessions/:sessionId", s.deleteSession)
	api.GET("/achievements/:userId", s.listAchievements)
	api.POST("/achievements/:userId/unlock/:achievementId", s.unlock)
	api.POST("/achievements/:userId/check", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"checked": 0, "newlyUnlocked": 0, "achievements": []any{}})
	})
	api.GET("/analytics/:userId/streak", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"currentStreak": 0, "longestStreak": 0})
	})
	return r
}

func (s *Server) failureInjector(c *gin.Context) {
	s.mu.Lock()
	status := s.failStatus
	if status == 0 && s.failNext > 0 {
		s.failNext--
		status = http.StatusServiceUnavailable
	}
	s.mu.Unlock()
	if status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"error": "injected failure"})
		return
	}
	c.Next()
}

func (s *Server) record(c *gin.Context, key string) {
	s.calls = append(s.calls, Call{Method: c.Request.Method, Path: c.FullPath(), Key: key})
}

func (s *Server) login(c *gin.Context) {
	body := struct {
		UserID *string `json:"userId"`
	}{}
	_ = c.ShouldBindJSON(&body)
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ""
	if body.UserID != nil {
		id = *body.UserID
	}
	isNew := false
	if id == "" || !s.users[id] {
		if id == "" {
			s.nextUser++
			id = "user-" + strconv.Itoa(s.nextUser)
		}
		s.users[id] = true
		isNew = true
	}
	c.JSON(http.StatusOK, gin.H{"user": gin.H{"id": id}, "isNew": isNew})
}

func (s *Server) getProfile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[c.Param("userId")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.Data(http.StatusOK, "application/json", profile)
}

func (s *Server) putProfile(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[c.Param("userId")] = raw
	s.record(c, c.Param("userId"))
	c.Data(http.StatusOK, "application/json", raw)
}

func (s *Server) listSessions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sessions[c.Param("userId")]
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	out := []json.RawMessage{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		out = append(out, all[i])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createSession(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session"})
		return
	}
	id := recordID(raw)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session id required"})
		return
	}
	userID := c.Param("userId")
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i, existing := range s.sessions[userID] {
		if recordID(existing) == id {
			s.sessions[userID][i] = raw
			replaced = true
		}
	}
	if !replaced {
		s.sessions[userID] = append(s.sessions[userID], raw)
	}
	s.sessionUser[id] = userID
	s.record(c, id)
	c.Data(http.StatusCreated, "application/json", raw)
}

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("sessionId")
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessionUser[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	kept := s.sessions[userID][:0]
	for _, existing := range s.sessions[userID] {
		if recordID(existing) != id {
			kept = append(kept, existing)
		}
	}
	s.sessions[userID] = kept
	delete(s.sessionUser, id)
	s.record(c, id)
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

func (s *Server) listAchievements(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []gin.H{}
	for id := range s.unlocked[c.Param("userId")] {
		items = append(items, gin.H{"id": id, "unlocked": true, "unlockedAt": "2024-01-01T00:00:00Z"})
	}
	c.JSON(http.StatusOK, gin.H{"total": len(items), "unlocked": len(items), "achievements": items})
}

func (s *Server) unlock(c *gin.Context) {
	userID, achievementID := c.Param("userId"), c.Param("achievementId")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unlocked[userID] == nil {
		s.unlocked[userID] = map[string]bool{}
	}
	if s.unlocked[userID][achievementID] {
		c.JSON(http.StatusOK, gin.H{"message": "Already unlocked"})
		return
	}
	s.unlocked[userID][achievementID] = true
	s.record(c, achievementID)
	c.JSON(http.StatusOK, gin.H{"message": "Achievement unlocked!", "xpBonus": 0})
}

func recordID(raw json.RawMessage) string {
	probe := struct {
		ID any `json:"id"`
	}{}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.ID == nil {
		return ""
	}
	return fmt.Sprint(probe.ID)
}
