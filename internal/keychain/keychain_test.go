package keychain

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	if _, ok, err := s.Get(KeyBasicAuthToken); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want absent", ok, err)
	}
	if err := s.Set(KeyBasicAuthToken, "dXNlcjpwYXNz"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, ok, err := s.Get(KeyBasicAuthToken)
	if err != nil || !ok || got != "dXNlcjpwYXNz" {
		t.Fatalf("Get = %q, %v, %v; want stored token", got, ok, err)
	}
	if err := s.Set(KeyBasicAuthToken, "bmV3"); err != nil {
		t.Fatalf("Set(overwrite) returned error: %v", err)
	}
	if got, _, _ := s.Get(KeyBasicAuthToken); got != "bmV3" {
		t.Fatalf("Get after overwrite = %q, want bmV3", got)
	}
	if err := s.Delete(KeyBasicAuthToken); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok, _ := s.Get(KeyBasicAuthToken); ok {
		t.Fatal("Get after Delete reported present")
	}
	if err := s.Delete("never-set"); err != nil {
		t.Fatalf("Delete(missing) returned error: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory(nil))
}

func TestBoltStore(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "keychain.db"))
	if err != nil {
		t.Fatalf("OpenBolt returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keychain.db")

	s, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt returned error: %v", err)
	}
	if err := s.Set(KeyUserData, `{"id":1}`); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	s, err = OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	got, ok, err := s.Get(KeyUserData)
	if err != nil || !ok || got != `{"id":1}` {
		t.Fatalf("Get after reopen = %q, %v, %v", got, ok, err)
	}

	info, err := os.Stat(path + ".key")
	if err != nil {
		t.Fatalf("Stat key file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("key file perm = %o, want 600", perm)
	}
}

func TestBoltStore_ValuesAreNotPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keychain.db")
	s, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt returned error: %v", err)
	}
	if err := s.Set(KeyBasicAuthToken, "super-secret-token"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	_ = s.Close()

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		t.Fatalf("bolt.Open: %v", err)
	}
	defer db.Close()
	var raw []byte
	_ = db.View(func(tx *bolt.Tx) error {
		raw = append([]byte(nil), tx.Bucket(bucketSecrets).Get([]byte(KeyBasicAuthToken))...)
		return nil
	})
	if len(raw) == 0 {
		t.Fatal("no raw value stored")
	}
	if bytes.Contains(raw, []byte("super-secret-token")) {
		t.Fatal("value stored in plaintext")
	}
}

func TestBoltStore_RejectsValueMovedToAnotherKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keychain.db")
	s, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Set(KeyBasicAuthToken, "token"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSecrets)
		v := append([]byte(nil), b.Get([]byte(KeyBasicAuthToken))...)
		return b.Put([]byte(KeyUserData), v)
	})
	if err != nil {
		t.Fatalf("copy value: %v", err)
	}

	if _, _, err := s.Get(KeyUserData); err == nil {
		t.Fatal("Get of relocated value returned nil error")
	}
}

func TestBoltStore_UseAfterClose(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "keychain.db"))
	if err != nil {
		t.Fatalf("OpenBolt returned error: %v", err)
	}
	_ = s.Close()
	if _, _, err := s.Get(KeyBasicAuthToken); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after Close error = %v, want ErrClosed", err)
	}
	if err := s.Set(KeyBasicAuthToken, "x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Set after Close error = %v, want ErrClosed", err)
	}
}

func TestClear(t *testing.T) {
	s := NewMemory(map[string]string{
		KeyBasicAuthToken: "a",
		KeyUserData:       "b",
		KeyMobileIdentity: "c",
		"unrelated":       "d",
	})
	if err := Clear(s); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	for _, key := range []string{KeyBasicAuthToken, KeyUserData, KeyMobileIdentity} {
		if _, ok, _ := s.Get(key); ok {
			t.Fatalf("%s still present after Clear", key)
		}
	}
	if _, ok, _ := s.Get("unrelated"); !ok {
		t.Fatal("Clear removed an unrelated key")
	}
}
