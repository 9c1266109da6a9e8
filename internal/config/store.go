package config

import (
	"go.etcd.io/bbolt"

	pdm "github.com/pdmcore/pdm-core"
)

var (
	configBucket = []byte("pdm_config")
	configKey    = []byte("blob")
)

// Store is the persisted configuration adapter: a single fixed-layout
// blob (blob.go) held in one bbolt bucket, opened the same way
// main.go's openDb opens its storm-backed user database — a single file
// under the data directory, touched only at boot and on explicit
// SAVE/LOAD (spec.md §5 "Shared resources": never from the tick hot
// path).
type Store struct {
	db *bbolt.DB
}

// OpenStore opens (creating if necessary) the bbolt file at path and
// ensures the config bucket exists.
func OpenStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(configBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save persists cfg, overwriting any previous blob.
func (s *Store) Save(cfg pdm.Configuration) error {
	blob := Encode(cfg)
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(configBucket).Put(configKey, blob)
	})
}

// Load reads the persisted configuration. Per spec.md §6's mandated
// stricter behavior, a missing key, bad magic, or bad CRC all return an
// error and the caller is expected to retain its in-memory defaults
// rather than apply anything from this call.
func (s *Store) Load() (pdm.Configuration, error) {
	var blob []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(configBucket).Get(configKey)
		if v == nil {
			return ErrBadMagic
		}
		blob = make([]byte, len(v))
		copy(blob, v)
		return nil
	})
	if err != nil {
		return pdm.Configuration{}, err
	}
	return Decode(blob)
}
