package storefakes

import (
	"sync"

	"github.com/gestion-erp/gestion-go/session"
)

var _ session.Store = (*FakeStore)(nil)

// FakeStore is an in-memory session.Store for tests. It counts calls so tests
// can assert on storage traffic, and its error fields force failures.
type FakeStore struct {
	LoadCalls  int
	SaveCalls  int
	ClearCalls int
	LoadErr    error
	SaveErr    error
	ClearErr   error

	creds *session.Credentials
	lock  sync.Mutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// NewFakeStoreWith returns a fake pre-loaded with a credential pair.
func NewFakeStoreWith(creds session.Credentials) *FakeStore {
	return &FakeStore{creds: &creds}
}

func (fs *FakeStore) Load() (*session.Credentials, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.LoadCalls++
	if fs.LoadErr != nil {
		return nil, fs.LoadErr
	}
	if fs.creds == nil {
		return nil, session.ErrNoCredentials
	}
	c := *fs.creds
	return &c, nil
}

func (fs *FakeStore) Save(creds *session.Credentials) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.SaveCalls++
	if fs.SaveErr != nil {
		return fs.SaveErr
	}
	c := *creds
	fs.creds = &c
	return nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.ClearCalls++
	if fs.ClearErr != nil {
		return fs.ClearErr
	}
	fs.creds = nil
	return nil
}

// Credentials returns the currently stored pair, nil after Clear.
func (fs *FakeStore) Credentials() *session.Credentials {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.creds == nil {
		return nil
	}
	c := *fs.creds
	return &c
}
