package db

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

type BadgerDB struct {
	db     *badger.DB
	logger zerolog.Logger
}

type BadgerRoTx struct {
	tx *badger.Txn
}

type BadgerRwTx struct {
	*BadgerRoTx
}

type BadgerIter struct {
	iter        *badger.Iterator
	tablePrefix []byte
	toPrefix    []byte
}

// interfaces
var (
	_ RoTx = new(BadgerRoTx)
	_ RwTx = new(BadgerRwTx)
	_ DB   = new(BadgerDB)
	_ Iter = new(BadgerIter)
)

func makeKey(table TableName, key []byte) []byte {
	return append([]byte(table+":"), key...)
}

func NewBadgerDb(path string, logger zerolog.Logger) (*BadgerDB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	return newBadgerDb(&opts, logger)
}

func NewBadgerDbInMemory() (*BadgerDB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return newBadgerDb(&opts, zerolog.Nop())
}

func newBadgerDb(opts *badger.Options, logger zerolog.Logger) (*BadgerDB, error) {
	instance, err := badger.Open(*opts)
	if err != nil {
		return nil, err
	}
	return &BadgerDB{db: instance, logger: logger}, nil
}

func (db *BadgerDB) Close() {
	_ = db.db.Close()
}

func (db *BadgerDB) DropAll() error {
	return db.db.DropAll()
}

func (db *BadgerDB) CreateRoTx(ctx context.Context) (RoTx, error) {
	return &BadgerRoTx{tx: db.db.NewTransaction(false)}, nil
}

func (db *BadgerDB) CreateRwTx(ctx context.Context) (RwTx, error) {
	return &BadgerRwTx{&BadgerRoTx{tx: db.db.NewTransaction(true)}}, nil
}

// LogGC runs badger value-log garbage collection until the context is
// canceled.
func (db *BadgerDB) LogGC(ctx context.Context, discardRatio float64, gcFrequency time.Duration) error {
	ticker := time.NewTicker(gcFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			var err error
			for ; err == nil; err = db.db.RunValueLogGC(discardRatio) {
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				db.logger.Error().Err(err).Msg("error during badger log GC")
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (tx *BadgerRwTx) Commit() error {
	return tx.tx.Commit()
}

func (tx *BadgerRoTx) Rollback() {
	tx.tx.Discard()
}

func (tx *BadgerRwTx) Put(table TableName, key, value []byte) error {
	return tx.tx.Set(makeKey(table, key), value)
}

func (tx *BadgerRoTx) Get(table TableName, key []byte) ([]byte, error) {
	item, err := tx.tx.Get(makeKey(table, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (tx *BadgerRoTx) Exists(table TableName, key []byte) (bool, error) {
	_, err := tx.tx.Get(makeKey(table, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (tx *BadgerRwTx) Delete(table TableName, key []byte) error {
	return tx.tx.Delete(makeKey(table, key))
}

func (tx *BadgerRoTx) Range(table TableName, from, to []byte) (Iter, error) {
	var iter BadgerIter
	iter.iter = tx.tx.NewIterator(badger.DefaultIteratorOptions)
	if iter.iter == nil {
		return nil, ErrIteratorCreate
	}

	iter.iter.Seek(makeKey(table, from))
	iter.tablePrefix = []byte(table + ":")
	if to != nil {
		iter.toPrefix = makeKey(table, to)
	}

	return &iter, nil
}

func (it *BadgerIter) HasNext() bool {
	if !it.iter.ValidForPrefix(it.tablePrefix) {
		return false
	}

	if it.toPrefix == nil {
		return true
	}

	if k := it.iter.Item().Key(); bytes.Compare(k, it.toPrefix) > 0 {
		return false
	}
	return true
}

func (it *BadgerIter) Next() ([]byte, []byte, error) {
	item := it.iter.Item()
	it.iter.Next()
	key := item.KeyCopy(nil)
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, nil, err
	}
	return key[len(it.tablePrefix):], value, nil
}

func (it *BadgerIter) Close() {
	it.iter.Close()
}
