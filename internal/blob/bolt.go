package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const bucketReceipts = "receipts"

// URLPrefix is where the HTTP layer serves stored receipts from.
const URLPrefix = "/api/v1/receipts/"

// BoltStore keeps receipt images in a local bbolt file.
type BoltStore struct {
	db *bolt.DB
}

type record struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// OpenBolt opens (creating if needed) the receipt database at path.
func OpenBolt(dbPath string) (*BoltStore, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening blob database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketReceipts))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating receipts bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Put(_ context.Context, data []byte, contentType string) (string, error) {
	id := uuid.New()

	value, err := json.Marshal(record{ContentType: contentType, Data: data})
	if err != nil {
		return "", fmt.Errorf("marshaling blob record: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketReceipts)).Put([]byte(id.String()), value)
	})
	if err != nil {
		return "", fmt.Errorf("storing blob: %w", err)
	}

	return URLPrefix + id.String(), nil
}

func (s *BoltStore) Open(_ context.Context, url string) ([]byte, string, error) {
	id, err := idFromURL(url)
	if err != nil {
		return nil, "", err
	}

	var rec record

	err = s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket([]byte(bucketReceipts)).Get([]byte(id.String()))
		if value == nil {
			return ErrNotFound
		}

		return json.Unmarshal(value, &rec)
	})
	if err != nil {
		return nil, "", err
	}

	return rec.Data, rec.ContentType, nil
}

// Delete removes the blob. Returns false without error when the URL does
// not resolve, so releases stay idempotent.
func (s *BoltStore) Delete(_ context.Context, url string) (bool, error) {
	id, err := idFromURL(url)
	if err != nil {
		return false, nil
	}

	found := false

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketReceipts))

		key := []byte(id.String())
		if b.Get(key) == nil {
			return nil
		}

		found = true

		return b.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("deleting blob: %w", err)
	}

	return found, nil
}

func idFromURL(url string) (uuid.UUID, error) {
	id, err := uuid.Parse(path.Base(url))
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing blob url %q: %w", url, ErrNotFound)
	}

	return id, nil
}
