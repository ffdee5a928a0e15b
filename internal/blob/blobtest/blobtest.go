// Package blobtest provides a conformance suite for blob.Store
// implementations and a fault-injecting store wrapper for tests.
package blobtest

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/passvault/internal/blob"
)

// ErrInjected is returned by Faulty for operations armed to fail
var ErrInjected = errors.New("injected storage failure")

// Run exercises the blob.Store contract against stores created by newStore.
func Run(t *testing.T, newStore func(t *testing.T) blob.Store) {
	t.Helper()

	t.Run("SaveLoad", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save("vaultHash", []byte{0x00, 0x01, 0xff}))

		data, err := s.Load("vaultHash")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0x01, 0xff}, data)
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save("vault", []byte("old")))
		require.NoError(t, s.Save("vault", []byte("new")))

		data, err := s.Load("vault")
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("LoadMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load("missing")
		assert.ErrorIs(t, err, blob.ErrNotFound)
	})

	t.Run("Exists", func(t *testing.T) {
		s := newStore(t)
		ok, err := s.Exists("vaultSalt")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Save("vaultSalt", []byte("salt")))
		ok, err = s.Exists("vaultSalt")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("DeleteIdempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Delete("never-saved"))

		require.NoError(t, s.Save("vault", []byte("data")))
		require.NoError(t, s.Delete("vault"))
		require.NoError(t, s.Delete("vault"))

		_, err := s.Load("vault")
		assert.ErrorIs(t, err, blob.ErrNotFound)
	})

	t.Run("LoadReturnsCopy", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save("vault", []byte("data")))

		data, err := s.Load("vault")
		require.NoError(t, err)
		data[0] = 'X'

		again, err := s.Load("vault")
		require.NoError(t, err)
		assert.Equal(t, "data", string(again))
	})

	t.Run("EmptyBlob", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save("empty", []byte{}))

		ok, err := s.Exists("empty")
		require.NoError(t, err)
		assert.True(t, ok)

		data, err := s.Load("empty")
		require.NoError(t, err)
		assert.Empty(t, data)
	})
}

// Op names a blob.Store operation for fault injection
type Op string

const (
	OpSave   Op = "save"
	OpLoad   Op = "load"
	OpDelete Op = "delete"
	OpExists Op = "exists"
)

type fault struct {
	op   Op
	name string
}

type rule struct {
	skip      int // calls to let through before failing
	remaining int // failures left, -1 means always
}

// Faulty wraps a blob.Store and fails selected operations with ErrInjected.
type Faulty struct {
	blob.Store

	mu     sync.Mutex
	faults map[fault]*rule
	calls  []string
}

// NewFaulty wraps inner
func NewFaulty(inner blob.Store) *Faulty {
	return &Faulty{Store: inner, faults: make(map[fault]*rule)}
}

// Fail makes every op on name fail until Heal is called
func (f *Faulty) Fail(op Op, name string) {
	f.arm(op, name, 0, -1)
}

// FailOnce makes the next op on name fail
func (f *Faulty) FailOnce(op Op, name string) {
	f.arm(op, name, 0, 1)
}

// FailAfter lets skip ops on name succeed, then fails every following one
func (f *Faulty) FailAfter(op Op, name string, skip int) {
	f.arm(op, name, skip, -1)
}

func (f *Faulty) arm(op Op, name string, skip, remaining int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[fault{op, name}] = &rule{skip: skip, remaining: remaining}
}

// Heal removes all armed faults
func (f *Faulty) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = make(map[fault]*rule)
}

// Calls returns the operations seen so far as "op:name"
func (f *Faulty) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Faulty) check(op Op, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, string(op)+":"+name)

	key := fault{op, name}
	r, ok := f.faults[key]
	if !ok {
		return nil
	}
	if r.skip > 0 {
		r.skip--
		return nil
	}
	if r.remaining > 0 {
		r.remaining--
		if r.remaining == 0 {
			delete(f.faults, key)
		}
	}
	return ErrInjected
}

func (f *Faulty) Save(name string, data []byte) error {
	if err := f.check(OpSave, name); err != nil {
		return err
	}
	return f.Store.Save(name, data)
}

func (f *Faulty) Load(name string) ([]byte, error) {
	if err := f.check(OpLoad, name); err != nil {
		return nil, err
	}
	return f.Store.Load(name)
}

func (f *Faulty) Delete(name string) error {
	if err := f.check(OpDelete, name); err != nil {
		return err
	}
	return f.Store.Delete(name)
}

func (f *Faulty) Exists(name string) (bool, error) {
	if err := f.check(OpExists, name); err != nil {
		return false, err
	}
	return f.Store.Exists(name)
}
