package user

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// memStore is an in-memory Store with the same contract as Repository:
// unique emails, cascade on delete, ErrNotFound for missing rows.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	users     map[string]User
	addresses map[int64]Address
	phones    map[int64]Phone
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]User),
		addresses: make(map[int64]Address),
		phones:    make(map[int64]Phone),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[email]
	return ok, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[email]
	if !ok {
		return nil, ErrNotFound
	}

	u.Addresses = []Address{}
	for _, a := range m.addresses {
		if a.UserID == u.ID {
			u.Addresses = append(u.Addresses, a)
		}
	}
	slices.SortFunc(u.Addresses, func(a, b Address) int { return cmp.Compare(a.ID, b.ID) })

	u.Phones = []Phone{}
	for _, p := range m.phones {
		if p.UserID == u.ID {
			u.Phones = append(u.Phones, p)
		}
	}
	slices.SortFunc(u.Phones, func(a, b Phone) int { return cmp.Compare(a.ID, b.ID) })

	return &u, nil
}

func (m *memStore) SaveUser(_ context.Context, u *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID != 0 {
		for email, stored := range m.users {
			if stored.ID == u.ID {
				stored.Name = u.Name
				stored.PasswordHash = u.PasswordHash
				m.users[email] = stored
				saved := *u
				return &saved, nil
			}
		}
		return nil, ErrNotFound
	}

	if _, ok := m.users[u.Email]; ok {
		return nil, ErrDuplicateEmail
	}

	saved := *u
	saved.ID = m.id()
	saved.Addresses = make([]Address, len(u.Addresses))
	for i, a := range u.Addresses {
		a.ID = m.id()
		a.UserID = saved.ID
		m.addresses[a.ID] = a
		saved.Addresses[i] = a
	}
	saved.Phones = make([]Phone, len(u.Phones))
	for i, p := range u.Phones {
		p.ID = m.id()
		p.UserID = saved.ID
		m.phones[p.ID] = p
		saved.Phones[i] = p
	}

	row := saved
	row.Addresses, row.Phones = nil, nil
	m.users[saved.Email] = row

	return &saved, nil
}

func (m *memStore) DeleteByEmail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[email]
	if !ok {
		return nil
	}
	delete(m.users, email)
	for id, a := range m.addresses {
		if a.UserID == u.ID {
			delete(m.addresses, id)
		}
	}
	for id, p := range m.phones {
		if p.UserID == u.ID {
			delete(m.phones, id)
		}
	}
	return nil
}

func (m *memStore) FindAddressByID(_ context.Context, id int64) (*Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.addresses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *memStore) SaveAddress(_ context.Context, a *Address) (*Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := *a
	if saved.ID == 0 {
		if !m.hasUserID(saved.UserID) {
			return nil, ErrNotFound
		}
		saved.ID = m.id()
	} else if _, ok := m.addresses[saved.ID]; !ok {
		return nil, ErrNotFound
	}
	m.addresses[saved.ID] = saved
	return &saved, nil
}

func (m *memStore) FindPhoneByID(_ context.Context, id int64) (*Phone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.phones[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memStore) SavePhone(_ context.Context, p *Phone) (*Phone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := *p
	if saved.ID == 0 {
		if !m.hasUserID(saved.UserID) {
			return nil, ErrNotFound
		}
		saved.ID = m.id()
	} else if _, ok := m.phones[saved.ID]; !ok {
		return nil, ErrNotFound
	}
	m.phones[saved.ID] = saved
	return &saved, nil
}

func (m *memStore) hasUserID(id int64) bool {
	for _, u := range m.users {
		if u.ID == id {
			return true
		}
	}
	return false
}

func (m *memStore) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// racyStore hides existing emails from ExistsByEmail, simulating a
// concurrent registration that wins between the check and the insert.
type racyStore struct {
	*memStore
}

func (racyStore) ExistsByEmail(context.Context, string) (bool, error) {
	return false, nil
}
