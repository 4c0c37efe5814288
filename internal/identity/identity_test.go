package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/sakif/pressroom/internal/apperror"
	"github.com/sakif/pressroom/internal/model"
)

// mockUserRepo is an in-memory UserRepository keyed by external id.
//
// A mutex guards the map because the reconciler's whole reason to exist is
// racing first-logins, and we test exactly that with real goroutines below.
// failNextCreate / failLookups let individual tests inject storage faults.
type mockUserRepo struct {
	mu             sync.Mutex
	byExternal     map[string]*model.User
	nextID         int
	failNextCreate error // returned once by Create, then cleared
	failLookups    error // returned by every Get* when set
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byExternal: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNextCreate != nil {
		err := m.failNextCreate
		m.failNextCreate = nil
		return err
	}
	if _, exists := m.byExternal[user.ExternalID]; exists {
		// Same contract as the SQLite repository: UNIQUE(external_id)
		// violations come back as Conflict.
		return apperror.Conflict("user", user.ExternalID)
	}

	m.nextID++
	user.ID = fmt.Sprintf("mock-%d", m.nextID)
	stored := *user
	m.byExternal[user.ExternalID] = &stored
	return nil
}

func (m *mockUserRepo) GetByExternalID(_ context.Context, externalID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failLookups != nil {
		return nil, m.failLookups
	}
	user, ok := m.byExternal[externalID]
	if !ok {
		return nil, apperror.NotFound("user", externalID)
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.byExternal {
		if u.ID == id {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func newTestReconciler(t *testing.T) (*Reconciler, *mockUserRepo) {
	t.Helper()
	repo := newMockUserRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewReconciler(repo, logger), repo
}

func TestEnsureUser_CreatesOnFirstAccess(t *testing.T) {
	rec, _ := newTestReconciler(t)

	user, err := rec.EnsureUser(context.Background(), "github:1", Claims{
		Email:     "ada@example.com",
		Name:      "Ada Lovelace",
		AvatarURL: "https://img.example/ada.png",
	})
	if err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}

	if user.ID == "" {
		t.Error("EnsureUser() returned a user without an ID")
	}
	if user.Name != "Ada Lovelace" {
		t.Errorf("Name = %q, want %q", user.Name, "Ada Lovelace")
	}
	if user.Email != "ada@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "ada@example.com")
	}
}

func TestEnsureUser_AppliesClaimFallbacks(t *testing.T) {
	rec, _ := newTestReconciler(t)

	// The provider withheld everything but the subject.
	user, err := rec.EnsureUser(context.Background(), "github:2", Claims{})
	if err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}

	if user.Name != "Anonymous" {
		t.Errorf("Name = %q, want the %q fallback", user.Name, "Anonymous")
	}
	if user.Email != "github:2@user.com" {
		t.Errorf("Email = %q, want synthesized placeholder %q", user.Email, "github:2@user.com")
	}
}

func TestEnsureUser_Idempotent(t *testing.T) {
	rec, _ := newTestReconciler(t)

	first, err := rec.EnsureUser(context.Background(), "github:3", Claims{Name: "First"})
	if err != nil {
		t.Fatalf("first EnsureUser() error = %v", err)
	}

	// Second call with DIFFERENT claims: same user back, profile untouched.
	second, err := rec.EnsureUser(context.Background(), "github:3", Claims{Name: "Renamed"})
	if err != nil {
		t.Fatalf("second EnsureUser() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("internal IDs differ across calls: %q vs %q", first.ID, second.ID)
	}
	if second.Name != "First" {
		t.Errorf("Name = %q, want %q — EnsureUser must not sync profile claims", second.Name, "First")
	}
}

func TestEnsureUser_RecoversLostCreationRace(t *testing.T) {
	rec, repo := newTestReconciler(t)

	// Simulate the interleaving: our lookup saw nothing, but by the time we
	// insert, a concurrent request has already created the row.
	winner := &model.User{ExternalID: "u1", Name: "Winner"}
	if err := repo.Create(context.Background(), winner); err != nil {
		t.Fatalf("seeding winner: %v", err)
	}

	user, err := rec.EnsureUser(context.Background(), "u1", Claims{Name: "Loser"})
	if err != nil {
		t.Fatalf("EnsureUser() after conflict error = %v, want recovery", err)
	}

	if user.ID != winner.ID {
		t.Errorf("recovered user ID = %q, want the winner's %q", user.ID, winner.ID)
	}
	if user.Name != "Winner" {
		t.Errorf("recovered Name = %q, want %q", user.Name, "Winner")
	}
}

func TestEnsureUser_ConcurrentFirstCalls(t *testing.T) {
	rec, _ := newTestReconciler(t)

	const callers = 16

	var wg sync.WaitGroup
	ids := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, err := rec.EnsureUser(context.Background(), "u1", Claims{})
			if err != nil {
				t.Errorf("racing EnsureUser() error = %v", err)
				return
			}
			ids <- user.ID
		}()
	}
	wg.Wait()
	close(ids)

	// Every caller resolves to the same internal id.
	var canonical string
	for id := range ids {
		if canonical == "" {
			canonical = id
		} else if id != canonical {
			t.Errorf("racing EnsureUser() resolved to %q and %q — want one identity", canonical, id)
		}
	}
}

func TestEnsureUser_EmptySubjectUnauthorized(t *testing.T) {
	rec, _ := newTestReconciler(t)

	_, err := rec.EnsureUser(context.Background(), "", Claims{})

	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("EnsureUser(\"\") error = %v, want ErrUnauthorized", err)
	}
}

func TestEnsureUser_StorageFailureSurfaced(t *testing.T) {
	rec, repo := newTestReconciler(t)
	repo.failLookups = errors.New("connection refused")

	_, err := rec.EnsureUser(context.Background(), "github:9", Claims{})

	if !errors.Is(err, apperror.ErrStorage) {
		t.Errorf("EnsureUser() error = %v, want ErrStorage", err)
	}
	// The raw cause must not be the caller-visible message.
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message == "connection refused" {
		t.Error("storage cause leaked into the caller-visible message")
	}
}

func TestEnsureUser_CreateFailureNotRetried(t *testing.T) {
	rec, repo := newTestReconciler(t)
	repo.failNextCreate = errors.New("disk full")

	_, err := rec.EnsureUser(context.Background(), "github:10", Claims{})
	if !errors.Is(err, apperror.ErrStorage) {
		t.Fatalf("EnsureUser() error = %v, want ErrStorage", err)
	}

	// failNextCreate clears after one use; if the reconciler had retried,
	// the second attempt would have succeeded and err would be nil above.
	// A fresh call succeeds, proving the failure was not sticky.
	if _, err := rec.EnsureUser(context.Background(), "github:10", Claims{}); err != nil {
		t.Errorf("EnsureUser() after transient failure = %v, want success", err)
	}
}
