package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	lstorage "github.com/syndtr/goleveldb/leveldb/storage"
)

const (
	minCache   = 16
	minHandles = 16
)

var keyPrefix = []byte("/records/")

// LevelDB keeps every namespace as one key of a single database.
type LevelDB struct {
	path string
	db   *leveldb.DB
}

func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: minHandles,
		BlockCacheCapacity:     minCache / 2 * opt.MiB,
		WriteBuffer:            minCache / 4 * opt.MiB,
	})
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb %s", path)
	}
	return &LevelDB{path: path, db: db}, nil
}

// NewMemLevelDB opens a database backed by memory, its content is lost on Close.
func NewMemLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(lstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open memory leveldb")
	}
	return &LevelDB{path: "memory", db: db}, nil
}

func (l *LevelDB) Factory() Factory {
	return func(namespace string) (Store, error) {
		if namespace == "" {
			return nil, errors.New("empty namespace")
		}
		return &levelStore{db: l.db, key: append(append([]byte(nil), keyPrefix...), namespace...)}, nil
	}
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

type levelStore struct {
	db  *leveldb.DB
	key []byte
}

func (s *levelStore) Get(_ context.Context) (string, bool, error) {
	val, err := s.db.Get(s.key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "get %s", s.key)
	}
	return string(val), true, nil
}

func (s *levelStore) Set(_ context.Context, value string) error {
	return errors.Wrapf(s.db.Put(s.key, []byte(value), nil), "put %s", s.key)
}

func (s *levelStore) Delete(_ context.Context) error {
	return errors.Wrapf(s.db.Delete(s.key, nil), "delete %s", s.key)
}
