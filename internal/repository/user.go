package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/clipfeed/clipfeed/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByUsername(username string) (*model.User, error)
	SetBanned(id string, banned bool) error
	All() ([]*model.User, error)
}

// jsonUserRepository caches the user array and rewrites the whole document
// after every change. The cache is reloaded whenever the file on disk
// changes, so edits made by another process (the admin CLI) are seen
// before the next read and are never overwritten by a stale copy.
type jsonUserRepository struct {
	mu    sync.Mutex
	doc   jsonDocument[*model.User]
	users []*model.User
	// seen describes the file the cache was loaded from, nil if none
	seen fs.FileInfo
}

func NewJSONUserRepository(path string) (UserRepository, error) {
	r := &jsonUserRepository{doc: jsonDocument[*model.User]{path: path}}

	err := r.refresh()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// refresh reloads the document if it changed since it was last read or
// written. Callers hold r.mu.
func (r *jsonUserRepository) refresh() error {
	info, err := os.Stat(r.doc.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.users = nil
		r.seen = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat users: %w", err)
	}
	if r.unchanged(info) {
		return nil
	}

	users, err := r.doc.read()
	if err != nil {
		// Unlike videos, a corrupt user document is not reset: that would
		// silently free every username and drop every ban.
		return fmt.Errorf("failed to load users: %w", err)
	}

	r.users = r.users[:0:0]
	for _, u := range users {
		if u == nil {
			continue
		}
		u.UsernameKey = model.UsernameKey(u.Username)
		r.users = append(r.users, u)
	}
	r.seen = info
	return nil
}

// unchanged reports whether info is the file the cache came from. Every
// atomic write renames a new file into place, so a rewrite by another
// process changes the file identity even when mtime and size collide.
func (r *jsonUserRepository) unchanged(info fs.FileInfo) bool {
	return r.seen != nil &&
		os.SameFile(r.seen, info) &&
		info.ModTime().Equal(r.seen.ModTime()) &&
		info.Size() == r.seen.Size()
}

// commit writes next and makes it the cached state. The file is read back
// on the next call, since another process may replace it before it could
// be stat'ed here.
func (r *jsonUserRepository) commit(next []*model.User) error {
	err := r.doc.write(next)
	if err != nil {
		return err
	}
	r.users = next
	r.seen = nil
	return nil
}

func (r *jsonUserRepository) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.refresh()
	if err != nil {
		return err
	}

	user.UsernameKey = model.UsernameKey(user.Username)
	for _, u := range r.users {
		if u.UsernameKey == user.UsernameKey {
			return ErrDuplicateUsername
		}
	}

	stored := *user
	return r.commit(append(r.users[:len(r.users):len(r.users)], &stored))
}

func (r *jsonUserRepository) ByID(id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.refresh()
	if err != nil {
		return nil, err
	}

	for _, u := range r.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *jsonUserRepository) ByUsername(username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.refresh()
	if err != nil {
		return nil, err
	}

	k := model.UsernameKey(username)
	if strings.TrimSpace(k) == "" {
		return nil, ErrUserNotFound
	}
	for _, u := range r.users {
		if u.UsernameKey == k {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *jsonUserRepository) SetBanned(id string, banned bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.refresh()
	if err != nil {
		return err
	}

	for i, u := range r.users {
		if u.ID != id {
			continue
		}
		if u.Banned == banned {
			return nil
		}

		updated := *u
		updated.Banned = banned
		next := append([]*model.User(nil), r.users...)
		next[i] = &updated
		return r.commit(next)
	}
	return ErrUserNotFound
}

func (r *jsonUserRepository) All() ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.refresh()
	if err != nil {
		return nil, err
	}

	users := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		c := *u
		users = append(users, &c)
	}
	return users, nil
}
