// Package localstore is a small file-backed JSON key/value store. Each key
// holds one JSON document; collections are keys whose value is an array of
// objects.
package localstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	KeySession      = "session"
	KeyAppointments = "appointments"
	KeyBookings     = "bookings"
)

var ErrNotCollection = errors.New("value is not a JSON array of objects")

// Record is one element of a collection, kept as decoded JSON so readers
// can look fields up under whatever name the writer used.
type Record map[string]any

type Store struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// Open loads the store at path. A missing file is an empty store; the file
// and its directory are created on the first write.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Get decodes the value under key into v. It reports false when the key is
// absent.
func (s *Store) Get(key string, v any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data[key]
	s.data[key] = raw
	if err := s.flushLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.flushLocked(); err != nil {
		s.data[key] = prev
		return err
	}
	return nil
}

// ReadCollection returns the records stored under key. An absent key is an
// empty collection. Numbers are kept as json.Number so ids survive intact.
func (s *Store) ReadCollection(key string) ([]Record, error) {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return []Record{}, nil
	}
	return decodeCollection(raw)
}

// AppendToCollection adds record to the end of the collection under key,
// creating it if needed.
func (s *Store) AppendToCollection(key string, record any) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var items []json.RawMessage
	prev, had := s.data[key]
	if had {
		if err := json.Unmarshal(prev, &items); err != nil {
			return fmt.Errorf("%q: %w", key, ErrNotCollection)
		}
	}
	items = append(items, encoded)

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	s.data[key] = raw
	if err := s.flushLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func decodeCollection(raw json.RawMessage) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var items []Record
	if err := dec.Decode(&items); err != nil {
		return nil, ErrNotCollection
	}
	out := make([]Record, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out, nil
}

// flushLocked writes the whole store to a temp file and renames it over the
// target. Callers hold s.mu.
func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
