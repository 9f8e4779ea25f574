package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/domain"
)

type countingNotifier struct {
	count atomic.Int64
}

func (n *countingNotifier) Publish() { n.count.Add(1) }

func testCreds() auth.StaticSource {
	return auth.StaticSource{Creds: domain.Credentials{Token: "tok", UserID: "user-1"}}
}

func TestSendReturnsReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"Created the task for you."}`))
	}))
	defer srv.Close()

	notifier := &countingNotifier{}
	ch := New(srv.URL, testCreds(), notifier)

	reply, err := ch.Send(context.Background(), "add buy milk")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply != "Created the task for you." {
		t.Errorf("Unexpected reply: %q", reply)
	}
	if got := notifier.count.Load(); got != 1 {
		t.Errorf("Expected exactly 1 publish, got %d", got)
	}
}

func TestEmptyInputRejectedWithoutNetworkCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	notifier := &countingNotifier{}
	ch := New(srv.URL, testCreds(), notifier)

	for _, input := range []string{"", "   ", "\t\n"} {
		var verr *domain.ValidationError
		if _, err := ch.Send(context.Background(), input); !errors.As(err, &verr) {
			t.Errorf("Send(%q): expected ValidationError, got %v", input, err)
		}
	}
	if calls != 0 {
		t.Errorf("Expected no network calls, server saw %d", calls)
	}
	if got := notifier.count.Load(); got != 0 {
		t.Errorf("Expected no publishes for rejected input, got %d", got)
	}
}

func TestMissingCredentialsNoPublish(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	notifier := &countingNotifier{}
	ch := New(srv.URL, auth.StaticSource{}, notifier)

	if _, err := ch.Send(context.Background(), "hello"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("Expected ErrUnauthenticated, got %v", err)
	}
	if calls != 0 || notifier.count.Load() != 0 {
		t.Error("Expected neither a network call nor a publish without credentials")
	}
}

// publishOrderNotifier fails the test if Publish fires before the relay has
// finished responding.
type publishOrderNotifier struct {
	t         *testing.T
	responded *atomic.Bool
	count     atomic.Int64
}

func (n *publishOrderNotifier) Publish() {
	if !n.responded.Load() {
		n.t.Error("Publish fired before the chat response settled")
	}
	n.count.Add(1)
}

func TestPublishHappensAfterResponseSettles(t *testing.T) {
	var responded atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responded.Store(true)
		_, _ = w.Write([]byte(`{"response":"done"}`))
	}))
	defer srv.Close()

	notifier := &publishOrderNotifier{t: t, responded: &responded}
	ch := New(srv.URL, testCreds(), notifier)

	if _, err := ch.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got := notifier.count.Load(); got != 1 {
		t.Errorf("Expected exactly 1 publish per completed turn, got %d", got)
	}
}

func TestBackendErrorStillPublishes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"agent blew up"}`))
	}))
	defer srv.Close()

	notifier := &countingNotifier{}
	ch := New(srv.URL, testCreds(), notifier)

	_, err := ch.Send(context.Background(), "hi")
	var berr *domain.BackendError
	if !errors.As(err, &berr) {
		t.Fatalf("Expected BackendError, got %v", err)
	}
	if berr.Status != http.StatusInternalServerError || berr.Message != "agent blew up" {
		t.Errorf("Unexpected backend error: %+v", berr)
	}
	// Even a failed turn may have partially applied mutations.
	if got := notifier.count.Load(); got != 1 {
		t.Errorf("Expected 1 publish after backend error, got %d", got)
	}
}

func TestTransportFailureNeverPublishes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Relay unreachable.

	notifier := &countingNotifier{}
	ch := New(srv.URL, testCreds(), notifier)

	if _, err := ch.Send(context.Background(), "hi"); !errors.Is(err, domain.ErrConnection) {
		t.Fatalf("Expected ErrConnection, got %v", err)
	}
	if got := notifier.count.Load(); got != 0 {
		t.Errorf("Expected no publish on transport failure, got %d", got)
	}
}

func TestReplyContentIrrelevantToPublish(t *testing.T) {
	// The channel is opaque: a reply with no task-related text still
	// triggers a refresh.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"The weather is nice today."}`))
	}))
	defer srv.Close()

	notifier := &countingNotifier{}
	ch := New(srv.URL, testCreds(), notifier)

	if _, err := ch.Send(context.Background(), "how is the weather"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got := notifier.count.Load(); got != 1 {
		t.Errorf("Expected publish regardless of reply content, got %d", got)
	}
}

func TestConcurrentTurnsEachPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	notifier := &countingNotifier{}
	ch := New(srv.URL, testCreds(), notifier)

	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			if _, err := ch.Send(context.Background(), "msg"); err != nil {
				t.Errorf("Send failed: %v", err)
			}
		}()
	}
	for i := 0; i < 3; i++ {
		<-done
	}

	if got := notifier.count.Load(); got != 3 {
		t.Errorf("Expected 3 publishes for 3 turns, got %d", got)
	}
}
