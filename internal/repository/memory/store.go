package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/admin-console/internal/menutree"
	"github.com/iliyamo/admin-console/internal/model"
	"github.com/iliyamo/admin-console/internal/repository"
)

type userRow struct {
	model.User
	hash string
}

// Users implements repository.UserRepository.
type Users struct{ t *Table[userRow] }

func (u Users) List(ctx context.Context) ([]model.User, error) {
	rows, _ := u.t.List(ctx)
	out := make([]model.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.User)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (u Users) Get(ctx context.Context, id string) (model.User, error) {
	r, err := u.t.Get(ctx, id)
	return r.User, err
}

func (u Users) Create(ctx context.Context, usr *model.User, passwordHash string) error {
	usr.Email = repository.NormalizeEmail(usr.Email)
	row := userRow{User: *usr, hash: passwordHash}
	if err := u.t.Create(ctx, &row); err != nil {
		return err
	}
	*usr = row.User
	return nil
}

// Update keeps the stored password hash.
func (u Users) Update(ctx context.Context, usr *model.User) error {
	usr.Email = repository.NormalizeEmail(usr.Email)
	u.t.mu.Lock()
	defer u.t.mu.Unlock()
	i := u.t.index(usr.ID)
	if i < 0 {
		return repository.ErrNotFound
	}
	row := userRow{User: *usr, hash: u.t.rows[i].hash}
	if err := u.t.update(&row); err != nil {
		return err
	}
	*usr = row.User
	return nil
}

func (u Users) SetPassword(ctx context.Context, id, passwordHash string) error {
	u.t.mu.Lock()
	defer u.t.mu.Unlock()
	i := u.t.index(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	u.t.rows[i].hash = passwordHash
	return nil
}

func (u Users) Delete(ctx context.Context, id string) error { return u.t.Delete(ctx, id) }

func (u Users) GetCredentials(ctx context.Context, email string) (model.User, string, error) {
	email = repository.NormalizeEmail(email)
	u.t.mu.RLock()
	defer u.t.mu.RUnlock()
	for _, r := range u.t.rows {
		if r.Email == email {
			return r.User, r.hash, nil
		}
	}
	return model.User{}, "", repository.ErrNotFound
}

// Menus implements repository.MenuRepository.  Reads drop unknown icons
// and come back ordered by Order.
type Menus struct{ *Table[model.Menu] }

func sanitize(ms []model.Menu) []model.Menu {
	for i := range ms {
		ms[i].Icon = menutree.SanitizeIcon(ms[i].Icon)
	}
	menutree.SortByOrder(ms)
	return ms
}

func (m Menus) List(ctx context.Context) ([]model.Menu, error) {
	ms, err := m.Table.List(ctx)
	return sanitize(ms), err
}

func (m Menus) ListActive(ctx context.Context) ([]model.Menu, error) {
	ms, err := m.Table.List(ctx)
	active := ms[:0]
	for _, x := range ms {
		if x.IsActive {
			active = append(active, x)
		}
	}
	return sanitize(active), err
}

func (m Menus) Get(ctx context.Context, id string) (model.Menu, error) {
	x, err := m.Table.Get(ctx, id)
	x.Icon = menutree.SanitizeIcon(x.Icon)
	return x, err
}

// Permissions implements repository.PermissionRepository.
type Permissions struct{ *Table[model.Permission] }

func (p Permissions) ListByAccessLevel(ctx context.Context, accessLevelID string) ([]model.Permission, error) {
	all, err := p.Table.List(ctx)
	out := []model.Permission{}
	for _, x := range all {
		if x.AccessLevelID == accessLevelID {
			out = append(out, x)
		}
	}
	return out, err
}

// newestFirst wraps a table whose List is ordered by creation time
// descending.
type newestFirst[T any] struct{ *Table[T] }

func (n newestFirst[T]) List(ctx context.Context) ([]T, error) {
	rows, err := n.Table.List(ctx)
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ci, _ := n.stamps(&rows[i])
		cj, _ := n.stamps(&rows[j])
		return ci.After(*cj)
	})
	return rows, err
}

type tokenRow struct {
	userID  string
	expires time.Time
	revoked bool
}

// Tokens implements repository.TokenRepository.
type Tokens struct {
	mu   *sync.RWMutex
	rows map[string]*tokenRow
}

func (t Tokens) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[tokenHash]; ok {
		return repository.ErrConflict
	}
	t.rows[tokenHash] = &tokenRow{userID: userID, expires: exp}
	return nil
}

func (t Tokens) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rows[tokenHash]
	if !ok || r.revoked || time.Now().UTC().After(r.expires) {
		return "", repository.ErrNotFound
	}
	return r.userID, nil
}

func (t Tokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.rows[tokenHash]; ok {
		r.revoked = true
	}
	return nil
}

func (t Tokens) RevokeAllForUser(ctx context.Context, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.rows {
		if r.userID == userID {
			r.revoked = true
		}
	}
	return nil
}

// Denylist implements repository.Denylist with lazily expired entries.
type Denylist struct {
	mu   *sync.RWMutex
	jtis map[string]time.Time
}

// NewDenylist returns a process-local denylist, used by the SQL backend
// when Redis is unavailable.
func NewDenylist() Denylist {
	return Denylist{mu: &sync.RWMutex{}, jtis: map[string]time.Time{}}
}

func (d Denylist) Deny(ctx context.Context, jti string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if time.Now().After(until) {
		return nil
	}
	d.jtis[jti] = until
	return nil
}

func (d Denylist) IsDenied(ctx context.Context, jti string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	until, ok := d.jtis[jti]
	return ok && time.Now().Before(until), nil
}

// New returns an empty store.  Deletes that would orphan rows fail with
// repository.ErrConflict, mirroring the foreign keys of the SQL schema.
func New() *repository.Store {
	mu := &sync.RWMutex{}

	users := newTable(mu, func(u *userRow) *string { return &u.ID },
		func(u *userRow) (*time.Time, *time.Time) { return &u.CreatedAt, &u.UpdatedAt })
	groups := newTable(mu, func(g *model.Group) *string { return &g.ID },
		func(g *model.Group) (*time.Time, *time.Time) { return &g.CreatedAt, &g.UpdatedAt })
	levels := newTable(mu, func(a *model.AccessLevel) *string { return &a.ID },
		func(a *model.AccessLevel) (*time.Time, *time.Time) { return &a.CreatedAt, &a.UpdatedAt })
	menus := newTable(mu, func(m *model.Menu) *string { return &m.ID },
		func(m *model.Menu) (*time.Time, *time.Time) { return &m.CreatedAt, &m.UpdatedAt })
	screens := newTable(mu, func(s *model.Screen) *string { return &s.ID },
		func(s *model.Screen) (*time.Time, *time.Time) { return &s.CreatedAt, &s.UpdatedAt })
	perms := newTable[model.Permission](mu, func(p *model.Permission) *string { return &p.ID }, nil)
	queries := newTable(mu, func(q *model.AnalyticsQuery) *string { return &q.ID },
		func(q *model.AnalyticsQuery) (*time.Time, *time.Time) { return &q.CreatedAt, &q.UpdatedAt })
	reports := newTable(mu, func(r *model.PowerBIReport) *string { return &r.ID },
		func(r *model.PowerBIReport) (*time.Time, *time.Time) { return &r.CreatedAt, &r.UpdatedAt })
	tokens := Tokens{mu: mu, rows: map[string]*tokenRow{}}

	is := func(p *string, id string) bool { return p != nil && *p == id }

	users.unique = func(v *userRow) bool {
		return users.exists(func(u *userRow) bool { return u.ID != v.ID && u.Email == v.Email })
	}
	perms.unique = func(v *model.Permission) bool {
		return perms.exists(func(p *model.Permission) bool {
			return p.ID != v.ID && p.AccessLevelID == v.AccessLevelID && p.ResourceType == v.ResourceType && p.ResourceID == v.ResourceID
		})
	}
	groups.inUse = func(id string) bool {
		return users.exists(func(u *userRow) bool { return u.GroupID == id })
	}
	levels.inUse = func(id string) bool {
		return users.exists(func(u *userRow) bool { return u.AccessLevelID == id }) ||
			groups.exists(func(g *model.Group) bool { return g.AccessLevelID == id }) ||
			levels.exists(func(a *model.AccessLevel) bool { return is(a.ParentID, id) }) ||
			menus.exists(func(m *model.Menu) bool { return is(m.AccessLevelID, id) }) ||
			screens.exists(func(s *model.Screen) bool { return is(s.AccessLevelID, id) }) ||
			perms.exists(func(p *model.Permission) bool { return p.AccessLevelID == id })
	}
	menus.inUse = func(id string) bool {
		return menus.exists(func(m *model.Menu) bool { return is(m.ParentID, id) })
	}
	screens.inUse = func(id string) bool {
		return menus.exists(func(m *model.Menu) bool { return is(m.ScreenID, id) })
	}
	users.cascade = func(id string) {
		for h, r := range tokens.rows {
			if r.userID == id {
				delete(tokens.rows, h)
			}
		}
	}

	return &repository.Store{
		Users:        Users{t: users},
		Groups:       groups,
		AccessLevels: levels,
		Menus:        Menus{menus},
		Screens:      screens,
		Permissions:  Permissions{perms},
		Queries:      newestFirst[model.AnalyticsQuery]{queries},
		Reports:      newestFirst[model.PowerBIReport]{reports},
		Tokens:       tokens,
		Denylist:     Denylist{mu: mu, jtis: map[string]time.Time{}},
	}
}
