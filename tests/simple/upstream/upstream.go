// Package upstream is a small in-memory REST API used to exercise the mesh
// end to end.
package upstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Age   int    `json:"age,omitempty"`
}

type AvatarReceipt struct {
	UserID      string `json:"userId"`
	Size        int    `json:"size"`
	ContentType string `json:"contentType"`
}

type server struct {
	mu     sync.RWMutex
	users  map[string]*User
	nextID int
	now    func() time.Time
}

// Handler returns the API with a few seeded users.
func Handler() http.Handler {
	s := &server{users: make(map[string]*User), nextID: 1, now: time.Now}
	s.seed()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", s.listUsers)
	mux.HandleFunc("GET /users/{id}", s.getUser)
	mux.HandleFunc("POST /users", s.createUser)
	mux.HandleFunc("PUT /users/{id}/avatar", s.uploadAvatar)
	mux.HandleFunc("GET /search", s.search)
	mux.HandleFunc("GET /time", s.time)
	return mux
}

func (s *server) seed() {
	for _, u := range []User{
		{Name: "John Doe", Email: "john@example.com", Age: 30},
		{Name: "Jane Smith", Email: "jane@example.com", Age: 28},
		{Name: "Bob Wilson", Email: "bob@example.com", Age: 35},
	} {
		u := u
		u.ID = s.generateID()
		s.users[u.ID] = &u
	}
}

func (s *server) generateID() string {
	id := fmt.Sprintf("user-%d", s.nextID)
	s.nextID++
	return id
}

func (s *server) sorted() []*User {
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	users := s.sorted()
	s.mu.RUnlock()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid limit"})
			return
		}
		if n < len(users) {
			users = users[:n]
		}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	u, ok := s.users[r.PathValue("id")]
	s.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *server) createUser(w http.ResponseWriter, r *http.Request) {
	var in User
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "name is required"})
		return
	}
	s.mu.Lock()
	in.ID = s.generateID()
	s.users[in.ID] = &in
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, in)
}

func (s *server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.RLock()
	_, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "user not found"})
		return
	}
	n, err := io.Copy(io.Discard, r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, AvatarReceipt{UserID: id, Size: int(n), ContentType: r.Header.Get("Content-Type")})
}

func (s *server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*User{}
	for _, u := range s.sorted() {
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(u.Email, q) {
			out = append(out, u)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) time(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, s.now().UTC().Format(time.RFC3339))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
