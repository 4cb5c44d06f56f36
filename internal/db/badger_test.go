package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

type SuiteBadgerDb struct {
	suite.Suite

	ctx context.Context
	db  DB
}

func (suite *SuiteBadgerDb) SetupSuite() {
	suite.ctx = context.Background()
}

func (suite *SuiteBadgerDb) SetupTest() {
	var err error
	suite.db, err = NewBadgerDbInMemory()
	suite.Require().NoError(err)
}

func (suite *SuiteBadgerDb) TearDownTest() {
	suite.db.Close()
}

func (suite *SuiteBadgerDb) TestPutGet() {
	tx, err := suite.db.CreateRwTx(suite.ctx)
	suite.Require().NoError(err)
	defer tx.Rollback()

	suite.Require().NoError(tx.Put(StoredObjectsTable, []byte("foo"), []byte("bar")))
	suite.Require().NoError(tx.Commit())

	ro, err := suite.db.CreateRoTx(suite.ctx)
	suite.Require().NoError(err)
	defer ro.Rollback()

	val, err := ro.Get(StoredObjectsTable, []byte("foo"))
	suite.Require().NoError(err)
	suite.Equal([]byte("bar"), val)

	_, err = ro.Get(StoredObjectsTable, []byte("missing"))
	suite.Require().ErrorIs(err, ErrKeyNotFound)
}

func (suite *SuiteBadgerDb) TestTableIsolation() {
	tx, err := suite.db.CreateRwTx(suite.ctx)
	suite.Require().NoError(err)
	defer tx.Rollback()

	suite.Require().NoError(tx.Put(StoredObjectsTable, []byte("key"), []byte("object")))
	suite.Require().NoError(tx.Commit())

	ro, err := suite.db.CreateRoTx(suite.ctx)
	suite.Require().NoError(err)
	defer ro.Rollback()

	has, err := ro.Exists(StoredObjectsTable, []byte("key"))
	suite.Require().NoError(err)
	suite.True(has)

	has, err = ro.Exists(StoredProofsTable, []byte("key"))
	suite.Require().NoError(err)
	suite.False(has)
}

func (suite *SuiteBadgerDb) TestRollback() {
	tx, err := suite.db.CreateRwTx(suite.ctx)
	suite.Require().NoError(err)

	suite.Require().NoError(tx.Put(StoredObjectsTable, []byte("foo"), []byte("bar")))
	tx.Rollback()

	ro, err := suite.db.CreateRoTx(suite.ctx)
	suite.Require().NoError(err)
	defer ro.Rollback()

	has, err := ro.Exists(StoredObjectsTable, []byte("foo"))
	suite.Require().NoError(err)
	suite.False(has)
}

func (suite *SuiteBadgerDb) TestDelete() {
	tx, err := suite.db.CreateRwTx(suite.ctx)
	suite.Require().NoError(err)
	defer tx.Rollback()

	suite.Require().NoError(tx.Put(StoredObjectsTable, []byte("foo"), []byte("bar")))
	suite.Require().NoError(tx.Commit())

	tx, err = suite.db.CreateRwTx(suite.ctx)
	suite.Require().NoError(err)
	defer tx.Rollback()

	suite.Require().NoError(tx.Delete(StoredObjectsTable, []byte("foo")))
	suite.Require().NoError(tx.Commit())

	ro, err := suite.db.CreateRoTx(suite.ctx)
	suite.Require().NoError(err)
	defer ro.Rollback()

	has, err := ro.Exists(StoredObjectsTable, []byte("foo"))
	suite.Require().NoError(err)
	suite.False(has)
}

func (suite *SuiteBadgerDb) TestRange() {
	tx, err := suite.db.CreateRwTx(suite.ctx)
	suite.Require().NoError(err)
	defer tx.Rollback()

	suite.Require().NoError(tx.Put(StoredObjectsTable, []byte("a"), []byte("1")))
	suite.Require().NoError(tx.Put(StoredObjectsTable, []byte("b"), []byte("2")))
	suite.Require().NoError(tx.Put(StoredObjectsTable, []byte("c"), []byte("3")))
	suite.Require().NoError(tx.Commit())

	ro, err := suite.db.CreateRoTx(suite.ctx)
	suite.Require().NoError(err)
	defer ro.Rollback()

	iter, err := ro.Range(StoredObjectsTable, []byte("a"), []byte("b"))
	suite.Require().NoError(err)
	defer iter.Close()

	var keys []string
	for iter.HasNext() {
		k, _, err := iter.Next()
		suite.Require().NoError(err)
		keys = append(keys, string(k))
	}
	suite.Equal([]string{"a", "b"}, keys)
}

func TestSuiteBadgerDb(t *testing.T) {
	t.Parallel()

	suite.Run(t, new(SuiteBadgerDb))
}
