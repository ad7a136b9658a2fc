package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"tasklist/internal/service"
)

// CollectionPath is where FakeServer mounts the task collection.
const CollectionPath = "/todos"

// RecordedRequest is one request seen by FakeServer.
type RecordedRequest struct {
	Method    string
	Path      string
	Body      []byte
	RequestID string
}

// FakeServer is an in-memory REST task collection served over httptest.
type FakeServer struct {
	srv *httptest.Server

	mu       sync.Mutex
	tasks    []service.Task
	nextID   int
	fail     map[string]int
	raw      map[string]string
	requests []RecordedRequest
}

// NewFakeServer starts a server holding tasks in the given order. It is
// closed when the test ends.
func NewFakeServer(t testing.TB, tasks ...service.Task) *FakeServer {
	t.Helper()
	fs := &FakeServer{
		tasks:  append([]service.Task(nil), tasks...),
		nextID: 201,
		fail:   make(map[string]int),
		raw:    make(map[string]string),
	}

	r := chi.NewRouter()
	r.Use(fs.record)
	r.Route(CollectionPath, func(r chi.Router) {
		r.Get("/", fs.list)
		r.Post("/", fs.create)
		r.Put("/{id}", fs.update)
		r.Delete("/{id}", fs.remove)
	})

	fs.srv = httptest.NewServer(r)
	t.Cleanup(fs.srv.Close)
	return fs
}

// URL returns the collection URL.
func (fs *FakeServer) URL() string {
	return fs.srv.URL + CollectionPath
}

// Close stops the server early, so calls fail at the transport level.
func (fs *FakeServer) Close() {
	fs.srv.Close()
}

// FailWith makes every request with the given method answer status.
func (fs *FakeServer) FailWith(method string, status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.fail[method] = status
}

// RespondRaw makes every request with the given method answer 200 with body.
func (fs *FakeServer) RespondRaw(method, body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.raw[method] = body
}

// Requests returns the requests seen so far.
func (fs *FakeServer) Requests() []RecordedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]RecordedRequest(nil), fs.requests...)
}

// Tasks returns a copy of the stored tasks.
func (fs *FakeServer) Tasks() []service.Task {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]service.Task(nil), fs.tasks...)
}

func (fs *FakeServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()

		fs.mu.Lock()
		fs.requests = append(fs.requests, RecordedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			Body:      body,
			RequestID: r.Header.Get("X-Request-ID"),
		})
		status, failing := fs.fail[r.Method]
		raw, hasRaw := fs.raw[r.Method]
		fs.mu.Unlock()

		if failing {
			http.Error(w, http.StatusText(status), status)
			return
		}
		if hasRaw {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, raw)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (fs *FakeServer) list(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, fs.Tasks())
}

func (fs *FakeServer) create(w http.ResponseWriter, r *http.Request) {
	var in service.NewTask
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fs.mu.Lock()
	t := service.Task{ID: fs.nextID, Title: in.Title, Completed: in.Completed, OwnerID: in.OwnerID}
	fs.nextID++
	fs.tasks = append(fs.tasks, t)
	fs.mu.Unlock()

	respondWithJSON(w, http.StatusCreated, t)
}

func (fs *FakeServer) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	var patch service.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i, t := range fs.tasks {
		if t.ID == id {
			fs.tasks[i] = patch.Apply(t)
			respondWithJSON(w, http.StatusOK, fs.tasks[i])
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (fs *FakeServer) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i, t := range fs.tasks {
		if t.ID == id {
			fs.tasks = append(fs.tasks[:i], fs.tasks[i+1:]...)
			break
		}
	}
	respondWithJSON(w, http.StatusOK, struct{}{})
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
