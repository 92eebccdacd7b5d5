// Package session persists the authentication flag and identity per role, in a durable
// or a process-scoped store selected by the "remember me" toggle.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// ManagerParams configure the session manager.
type ManagerParams struct {
	Durable Store
	Session Store
	Logger  *logger.Logger
	Clock   func() time.Time
}

// Manager selects the store for each role and hands the active token to the gateway.
type Manager struct {
	durable Store
	session Store
	logg    *logger.Logger
	now     func() time.Time

	mu     sync.RWMutex
	active enums.Role
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Durable == nil {
		return nil, fmt.Errorf("durable store required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session store required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		durable: params.Durable,
		session: params.Session,
		logg:    logg,
		now:     clock,
		active:  enums.RoleCustomer,
	}, nil
}

// SignIn derives the identity from token and persists it for the token's role.
func (m *Manager) SignIn(ctx context.Context, token string, rememberMe bool) (State, error) {
	identity, err := IdentityFromToken(token)
	if err != nil {
		return State{}, err
	}
	if identity.Expired(m.now()) {
		return State{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token has expired")
	}
	state := State{
		Authenticated: true,
		Role:          identity.Role,
		Token:         token,
		Identity:      identity,
	}
	if err := m.Persist(ctx, state, rememberMe); err != nil {
		return State{}, err
	}
	return state, nil
}

// Persist writes state to the durable store when rememberMe is set, otherwise to the
// session store, and clears the other one so a role never lives in both.
func (m *Manager) Persist(ctx context.Context, state State, rememberMe bool) error {
	if !state.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", state.Role)).WithField("role")
	}
	state.SavedAt = m.now()
	target, other := m.session, m.durable
	if rememberMe {
		target, other = m.durable, m.session
	}
	ctx = m.logg.WithRole(ctx, state.Role.String())
	if err := target.Save(ctx, state.Role, state); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not save your session")
	}
	if err := other.Clear(ctx, state.Role); err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "session.clear_other.failed")
	}
	m.SetActiveRole(state.Role)
	m.logg.Info(m.logg.WithField(ctx, "remember_me", rememberMe), "session.persisted")
	return nil
}

// Restore returns the saved state for role, preferring the session store. An expired
// identity is cleared and reported as absent.
func (m *Manager) Restore(ctx context.Context, role enums.Role) (State, bool, error) {
	for _, store := range []Store{m.session, m.durable} {
		state, ok, err := store.Load(ctx, role)
		if err != nil {
			return State{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not read your session")
		}
		if !ok {
			continue
		}
		if state.Identity.Expired(m.now()) {
			m.logg.Info(m.logg.WithRole(ctx, role.String()), "session.expired")
			if err := m.Clear(ctx, role); err != nil {
				return State{}, false, err
			}
			return State{}, false, nil
		}
		return state, true, nil
	}
	return State{}, false, nil
}

// Clear removes role from both stores.
func (m *Manager) Clear(ctx context.Context, role enums.Role) error {
	err := multierr.Combine(
		m.session.Clear(ctx, role),
		m.durable.Clear(ctx, role),
	)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not clear your session")
	}
	return nil
}

func (m *Manager) SetActiveRole(role enums.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = role
}

func (m *Manager) ActiveRole() enums.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Token returns the active role's access token, or "" when signed out.
func (m *Manager) Token(ctx context.Context) (string, error) {
	state, ok, err := m.Restore(ctx, m.ActiveRole())
	if err != nil || !ok || !state.Authenticated {
		return "", err
	}
	return state.Token, nil
}
