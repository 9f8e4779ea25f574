package taskapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/domain"
)

// fakeBackend is an in-memory task table behind the backend's HTTP surface.
type fakeBackend struct {
	mu     sync.Mutex
	nextID int
	tasks  []domain.Task
	token  string
}

func newFakeBackend(token string) *fakeBackend {
	return &fakeBackend{token: token}
}

func (f *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		path := strings.TrimPrefix(r.URL.Path, "/api/user-1")
		switch {
		case r.Method == http.MethodGet && path == "/tasks/":
			writeJSON(w, http.StatusOK, f.tasks)

		case r.Method == http.MethodPost && path == "/tasks/":
			var req struct {
				Title       string  `json:"title"`
				Description *string `json:"description"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "title is required"})
				return
			}
			f.nextID++
			task := domain.Task{
				ID:          fmt.Sprintf("task-%d", f.nextID),
				Title:       req.Title,
				Description: req.Description,
				CreatedAt:   time.Now().UTC().Truncate(time.Second),
			}
			f.tasks = append(f.tasks, task)
			writeJSON(w, http.StatusOK, task)

		case r.Method == http.MethodPatch && strings.HasSuffix(path, "/complete"):
			id := strings.TrimSuffix(strings.TrimPrefix(path, "/tasks/"), "/complete")
			for i := range f.tasks {
				if f.tasks[i].ID == id {
					f.tasks[i].Completed = !f.tasks[i].Completed
					writeJSON(w, http.StatusOK, f.tasks[i])
					return
				}
			}
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "task not found"})

		case r.Method == http.MethodDelete:
			id := strings.TrimPrefix(path, "/tasks/")
			for i := range f.tasks {
				if f.tasks[i].ID == id {
					f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "task not found"})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend("tok-1")
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	src := auth.StaticSource{Creds: domain.Credentials{Token: "tok-1", UserID: "user-1"}}
	return New(srv.URL, src), backend
}

func TestCreateToggleRemoveScenario(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	created, err := client.Create(ctx, "Buy milk", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Created task has empty ID")
	}

	tasks, err := client.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Completed {
		t.Fatalf("Unexpected list after create: %+v", tasks)
	}

	if err := client.ToggleComplete(ctx, created.ID); err != nil {
		t.Fatalf("ToggleComplete failed: %v", err)
	}
	tasks, _ = client.List(ctx)
	if !tasks[0].Completed {
		t.Error("Expected task completed after toggle")
	}

	if err := client.Remove(ctx, created.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	tasks, _ = client.List(ctx)
	for _, task := range tasks {
		if task.ID == created.ID {
			t.Error("Removed task still present in list")
		}
	}
}

func TestListIsIdempotent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Create(ctx, "a", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, err := client.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	second, err := client.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Repeated List returned different results:\n%+v\n%+v", first, second)
	}
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	created, err := client.Create(ctx, "flip me", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := client.ToggleComplete(ctx, created.ID); err != nil {
		t.Fatalf("First toggle failed: %v", err)
	}
	if err := client.ToggleComplete(ctx, created.ID); err != nil {
		t.Fatalf("Second toggle failed: %v", err)
	}

	tasks, _ := client.List(ctx)
	if tasks[0].Completed {
		t.Error("Expected completed flag restored after double toggle")
	}
}

func TestCreateEmptyTitleNoNetworkCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	src := auth.StaticSource{Creds: domain.Credentials{Token: "t", UserID: "user-1"}}
	client := New(srv.URL, src)

	var verr *domain.ValidationError
	if _, err := client.Create(context.Background(), "   ", nil); !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no network call, server saw %d", calls)
	}
}

func TestCreateForwardsAbsentDescriptionAsNull(t *testing.T) {
	var rawBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		rawBody = string(buf[:n])
		writeJSON(w, http.StatusOK, domain.Task{ID: "t1", Title: "x"})
	}))
	defer srv.Close()

	src := auth.StaticSource{Creds: domain.Credentials{Token: "t", UserID: "user-1"}}
	client := New(srv.URL, src)

	if _, err := client.Create(context.Background(), "x", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !strings.Contains(rawBody, `"description":null`) {
		t.Errorf("Expected description:null in request body, got %s", rawBody)
	}
}

func TestValidationDetailSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "title too long"})
	}))
	defer srv.Close()

	src := auth.StaticSource{Creds: domain.Credentials{Token: "t", UserID: "user-1"}}
	client := New(srv.URL, src)

	_, err := client.Create(context.Background(), "x", nil)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Message != "title too long" {
		t.Errorf("Expected backend detail surfaced, got %q", verr.Message)
	}
}

func TestMissingCredentialsNoNetworkCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := New(srv.URL, auth.StaticSource{})

	if _, err := client.List(context.Background()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("Expected ErrUnauthenticated, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no network call without credentials, server saw %d", calls)
	}
}

func TestToggleMissingTaskIsNotFound(t *testing.T) {
	client, _ := newTestClient(t)

	err := client.ToggleComplete(context.Background(), "no-such-task")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRejectedTokenIsUnauthenticated(t *testing.T) {
	backend := newFakeBackend("the-real-token")
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	src := auth.StaticSource{Creds: domain.Credentials{Token: "stale-token", UserID: "user-1"}}
	client := New(srv.URL, src)

	if _, err := client.List(context.Background()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for rejected token, got %v", err)
	}
}

func TestTransportFailureIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Nothing listening anymore.

	src := auth.StaticSource{Creds: domain.Credentials{Token: "t", UserID: "user-1"}}
	client := New(srv.URL, src)

	if _, err := client.List(context.Background()); !errors.Is(err, domain.ErrConnection) {
		t.Errorf("Expected ErrConnection, got %v", err)
	}
}

func TestServerErrorCarriesStatusAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
	}))
	defer srv.Close()

	src := auth.StaticSource{Creds: domain.Credentials{Token: "t", UserID: "user-1"}}
	client := New(srv.URL, src)

	_, err := client.List(context.Background())
	var berr *domain.BackendError
	if !errors.As(err, &berr) {
		t.Fatalf("Expected BackendError, got %v", err)
	}
	if berr.Status != http.StatusInternalServerError || berr.Message != "boom" {
		t.Errorf("Unexpected backend error: %+v", berr)
	}
}
