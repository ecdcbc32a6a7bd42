package testutil

import (
	"cmp"
	"context"
	"crypto/subtle"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-server/internal/model"
)

var (
	_ model.UserStore    = (*MemoryStore)(nil)
	_ model.ProfileStore = (*MemoryProfiles)(nil)
)

// MemoryStore is an in-process credential store with the same atomicity the
// postgres repositories provide. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]model.User
	profiles map[uuid.UUID]model.AlumniProfile

	// FailProfileInsert makes CreateWithProfile fail after the user row is
	// written, before the profile row is written.
	FailProfileInsert error
}

// MemoryProfiles exposes the profile half of a MemoryStore.
type MemoryProfiles struct {
	store *MemoryStore
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]model.User),
		profiles: make(map[uuid.UUID]model.AlumniProfile),
	}
}

// Profiles returns a ProfileStore backed by s.
func (s *MemoryStore) Profiles() *MemoryProfiles {
	return &MemoryProfiles{store: s}
}

// Users returns a snapshot of every stored user, including soft-deleted ones.
func (s *MemoryStore) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out
}

// ProfileCount returns the number of stored profiles.
func (s *MemoryStore) ProfileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

// Put stores u as is, replacing any user with the same id.
func (s *MemoryStore) Put(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) findLocked(match func(model.User) bool) (model.User, bool) {
	for _, u := range s.users {
		if u.DeletedAt == nil && match(u) {
			return u, true
		}
	}
	return model.User{}, false
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.findLocked(func(u model.User) bool { return strings.EqualFold(u.Email, email) })
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetByGoogleID(_ context.Context, googleID string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.findLocked(func(u model.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID })
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) CreateWithProfile(_ context.Context, user model.User, profile model.AlumniProfile) (model.User, model.AlumniProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return model.User{}, model.AlumniProfile{}, model.ErrConflict
		}
		if user.GoogleID != nil && existing.GoogleID != nil && *existing.GoogleID == *user.GoogleID {
			return model.User{}, model.AlumniProfile{}, model.ErrConflict
		}
	}

	s.users[user.ID] = user
	if s.FailProfileInsert != nil {
		delete(s.users, user.ID)
		return model.User{}, model.AlumniProfile{}, s.FailProfileInsert
	}

	profile.UserID = user.ID
	s.profiles[user.ID] = profile
	return user, profile, nil
}

func tokenEqual(stored model.SingleUseToken, presented string) bool {
	return stored.Value != "" && subtle.ConstantTimeCompare([]byte(stored.Value), []byte(presented)) == 1
}

func (s *MemoryStore) ConsumeVerificationToken(_ context.Context, token string, now time.Time) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.findLocked(func(u model.User) bool { return u.Verification.Matches(token, now) })
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	u.Verification, _ = u.Verification.Consume(token, now)
	u.EmailVerified = true
	u.UpdatedAt = now
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) ConsumeResetToken(_ context.Context, token string, passwordHash string, now time.Time) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.findLocked(func(u model.User) bool { return tokenEqual(u.Reset, token) && now.Before(u.Reset.ExpiresAt) })
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	u.Reset = model.SingleUseToken{}
	u.PasswordHash = &passwordHash
	u.UpdatedAt = now
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) update(id uuid.UUID, fn func(*model.User) error) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return model.User{}, model.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return model.User{}, err
	}
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return u, nil
}

func (s *MemoryStore) SetVerificationToken(_ context.Context, userID uuid.UUID, token model.SingleUseToken) error {
	_, err := s.update(userID, func(u *model.User) error {
		u.Verification = token
		return nil
	})
	return err
}

func (s *MemoryStore) SetResetToken(_ context.Context, userID uuid.UUID, token model.SingleUseToken) error {
	_, err := s.update(userID, func(u *model.User) error {
		u.Reset = token
		return nil
	})
	return err
}

func (s *MemoryStore) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := s.update(userID, func(u *model.User) error {
		u.PasswordHash = &passwordHash
		return nil
	})
	return err
}

func (s *MemoryStore) LinkGoogleID(_ context.Context, userID uuid.UUID, googleID, name string) (model.User, error) {
	return s.update(userID, func(u *model.User) error {
		if u.GoogleID != nil && *u.GoogleID != googleID {
			return model.ErrNotFound
		}
		for id, other := range s.users {
			if id != userID && other.GoogleID != nil && *other.GoogleID == googleID {
				return model.ErrConflict
			}
		}
		u.GoogleID = &googleID
		u.AuthMethod = model.AuthMethodGoogle
		if name != "" {
			u.Name = name
		}
		return nil
	})
}

func (s *MemoryStore) UpdateRole(_ context.Context, userID uuid.UUID, role model.Role) (model.User, error) {
	return s.update(userID, func(u *model.User) error {
		u.Role = role
		return nil
	})
}

func (s *MemoryStore) SoftDelete(_ context.Context, userID uuid.UUID, at time.Time) error {
	_, err := s.update(userID, func(u *model.User) error {
		u.DeletedAt = &at
		return nil
	})
	return err
}

func (s *MemoryStore) Restore(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.DeletedAt == nil {
		return model.ErrNotFound
	}
	u.DeletedAt = nil
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) List(_ context.Context, q model.UserQuery) ([]model.UserWithProfile, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []model.UserWithProfile
	for id, u := range s.users {
		if (u.DeletedAt != nil) != q.Deleted {
			continue
		}
		item := model.UserWithProfile{User: u}
		if p, ok := s.profiles[id]; ok {
			item.Profile = &p
		}
		if !matchesQuery(item, q) {
			continue
		}
		matched = append(matched, item)
	}

	slices.SortFunc(matched, func(a, b model.UserWithProfile) int {
		if q.Deleted {
			return b.User.DeletedAt.Compare(*a.User.DeletedAt)
		}
		return cmp.Compare(b.User.CreatedAt.UnixNano(), a.User.CreatedAt.UnixNano())
	})

	total := len(matched)
	start := min(q.Offset(), total)
	end := min(start+q.Limit, total)
	return matched[start:end], total, nil
}

func matchesQuery(item model.UserWithProfile, q model.UserQuery) bool {
	if q.Search != "" {
		search := strings.ToLower(q.Search)
		hit := strings.Contains(strings.ToLower(item.User.Name), search) ||
			strings.Contains(strings.ToLower(item.User.Email), search) ||
			(item.Profile != nil && strings.Contains(strings.ToLower(item.Profile.FullName), search))
		if !hit {
			return false
		}
	}
	if q.Department != "" && (item.Profile == nil || item.Profile.Department != q.Department) {
		return false
	}
	if q.ClassYear != 0 && (item.Profile == nil || item.Profile.ClassYear != q.ClassYear) {
		return false
	}
	return true
}

func (p *MemoryProfiles) GetByUserID(_ context.Context, userID uuid.UUID) (model.AlumniProfile, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	profile, ok := p.store.profiles[userID]
	if !ok {
		return model.AlumniProfile{}, model.ErrNotFound
	}
	return profile, nil
}

func (p *MemoryProfiles) Update(_ context.Context, profile model.AlumniProfile) (model.AlumniProfile, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	if _, ok := p.store.profiles[profile.UserID]; !ok {
		return model.AlumniProfile{}, model.ErrNotFound
	}
	profile.UpdatedAt = time.Now()
	p.store.profiles[profile.UserID] = profile
	return profile, nil
}
