package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

type fakeKV struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

type prefixKeyer struct{}

func (prefixKeyer) SessionKey(role string) string { return "pf:session:" + role }

func mintToken(t *testing.T, userID uuid.UUID, role enums.Role, expires time.Time) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Name:   "Ada",
		Email:  "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-verified-client-side"))
	require.NoError(t, err)
	return signed
}

type managerFixture struct {
	kv      *fakeKV
	durable *RedisStore
	memory  *MemoryStore
	manager *Manager
	now     time.Time
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	f := &managerFixture{
		kv:     newFakeKV(),
		memory: NewMemoryStore(),
		now:    time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	durable, err := newRedisStore(f.kv, prefixKeyer{}, 24*time.Hour)
	require.NoError(t, err)
	f.durable = durable
	manager, err := NewManager(ManagerParams{
		Durable: durable,
		Session: f.memory,
		Clock:   func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.manager = manager
	return f
}

func TestIdentityFromToken(t *testing.T) {
	userID := uuid.New()
	expires := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	identity, err := IdentityFromToken(mintToken(t, userID, enums.RoleSeller, expires))
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, enums.RoleSeller, identity.Role)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.True(t, identity.ExpiresAt.Equal(expires))

	_, err = IdentityFromToken("not-a-jwt")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = IdentityFromToken(mintToken(t, uuid.Nil, enums.RoleCustomer, expires))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRememberMeSelectsDurableStore(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()
	token := mintToken(t, uuid.New(), enums.RoleCustomer, f.now.Add(time.Hour))

	_, err := f.manager.SignIn(ctx, token, true)
	require.NoError(t, err)
	assert.Contains(t, f.kv.data, "pf:session:customer")
	assert.Equal(t, 24*time.Hour, f.kv.ttls["pf:session:customer"])
	_, inMemory, _ := f.memory.Load(ctx, enums.RoleCustomer)
	assert.False(t, inMemory)

	got, err := f.manager.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, got)
}

func TestSessionScopedPersistClearsDurableCopy(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()
	token := mintToken(t, uuid.New(), enums.RoleCustomer, f.now.Add(time.Hour))

	_, err := f.manager.SignIn(ctx, token, true)
	require.NoError(t, err)
	_, err = f.manager.SignIn(ctx, token, false)
	require.NoError(t, err)

	assert.NotContains(t, f.kv.data, "pf:session:customer")
	state, ok, err := f.manager.Restore(ctx, enums.RoleCustomer)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, state.Authenticated)
	assert.Equal(t, f.now, state.SavedAt)
}

func TestRolesAreKeyedIndependently(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()
	_, err := f.manager.SignIn(ctx, mintToken(t, uuid.New(), enums.RoleCustomer, f.now.Add(time.Hour)), true)
	require.NoError(t, err)
	_, err = f.manager.SignIn(ctx, mintToken(t, uuid.New(), enums.RoleDelivery, f.now.Add(time.Hour)), true)
	require.NoError(t, err)

	assert.Len(t, f.kv.data, 2)
	assert.Equal(t, enums.RoleDelivery, f.manager.ActiveRole())

	require.NoError(t, f.manager.Clear(ctx, enums.RoleCustomer))
	_, ok, err := f.manager.Restore(ctx, enums.RoleCustomer)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = f.manager.Restore(ctx, enums.RoleDelivery)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExpiredSessionIsDropped(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()
	_, err := f.manager.SignIn(ctx, mintToken(t, uuid.New(), enums.RoleCustomer, f.now.Add(time.Minute)), true)
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Minute)
	_, ok, err := f.manager.Restore(ctx, enums.RoleCustomer)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, f.kv.data)

	token, err := f.manager.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSignInRejectsExpiredToken(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.SignIn(context.Background(), mintToken(t, uuid.New(), enums.RoleCustomer, f.now.Add(-time.Minute)), false)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestStoreFailuresAreDependencyErrors(t *testing.T) {
	f := newManagerFixture(t)
	f.kv.err = errors.New("connection refused")
	err := f.manager.Persist(context.Background(), State{Authenticated: true, Role: enums.RoleCustomer}, true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, _, err = f.manager.Restore(context.Background(), enums.RoleCustomer)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestPersistRejectsInvalidRole(t *testing.T) {
	f := newManagerFixture(t)
	err := f.manager.Persist(context.Background(), State{Role: enums.Role("owner")}, false)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
