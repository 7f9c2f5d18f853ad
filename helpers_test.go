package goIdentity

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goIdentity/keys"
	"github.com/MrEthical07/goIdentity/password"
)

var (
	sharedKeyOnce sync.Once
	sharedKey     *keys.Keypair
	sharedKeyErr  error
)

func testKeypair(t testing.TB) *keys.Keypair {
	t.Helper()
	sharedKeyOnce.Do(func() {
		sharedKey, sharedKeyErr = keys.Generate(keys.DefaultBits)
	})
	if sharedKeyErr != nil {
		t.Fatalf("keys.Generate failed: %v", sharedKeyErr)
	}
	return sharedKey
}

func testPasswordConfig() password.Config {
	return password.Config{
		Algorithm:   password.AlgorithmArgon2id,
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
		BcryptCost:  4,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password = testPasswordConfig()
	cfg.Token.Issuer = "goidentity-test"
	return cfg
}

func testClock() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

// mockStore is a UserStore with call counters and injectable failures.
type mockStore struct {
	mu      sync.Mutex
	byEmail map[string]Identity
	nextID  int

	existsCalls int
	findCalls   int
	saveCalls   int

	existsErr error
	findErr   error
	saveErr   error
	// existsLies makes ExistsByEmail report false so Save hits the unique
	// constraint, as in a concurrent registration.
	existsLies bool
}

func newMockStore() *mockStore {
	return &mockStore{byEmail: map[string]Identity{}}
}

func (s *mockStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existsCalls++
	if s.existsErr != nil {
		return false, s.existsErr
	}
	if s.existsLies {
		return false, nil
	}
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *mockStore) FindByEmail(_ context.Context, email string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return Identity{}, s.findErr
	}
	id, ok := s.byEmail[email]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return id, nil
}

func (s *mockStore) Save(_ context.Context, id Identity) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.saveErr != nil {
		return Identity{}, s.saveErr
	}
	if _, ok := s.byEmail[id.Email]; ok {
		return Identity{}, ErrDuplicateIdentity
	}
	s.nextID++
	id.ID = "user-" + strconv.Itoa(s.nextID)
	s.byEmail[id.Email] = id
	return id, nil
}

func (s *mockStore) stored(email string) (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	return id, ok
}

func (s *mockStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byEmail)
}

func newTestEngine(t *testing.T, store UserStore, mutate func(*Config), builderOpts ...func(*Builder)) *Engine {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	b := New().
		WithConfig(cfg).
		WithUserStore(store).
		WithKeypair(testKeypair(t)).
		WithClock(testClock)
	for _, opt := range builderOpts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func registerAlice(t *testing.T, engine *Engine) *AuthResult {
	t.Helper()

	res, err := engine.Register(context.Background(), RegisterRequest{
		Email:             "alice@example.com",
		Password:          "correct-password-123",
		FullName:          "Alice Liddell",
		ProfessionalTitle: "Engineer",
		Company:           "Wonderland",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return res
}
