package mysql_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpup/pupcommits/es"
	"github.com/getpup/pupcommits/es/adapters/mysql"
	"github.com/getpup/pupcommits/es/partition"
	"github.com/getpup/pupcommits/es/serializer"
	"github.com/getpup/pupcommits/es/store"
)

// raw [0xFB, 0xEF, 0xBE] encodes to "++++"
var testID = es.AggregateID{BoundedContext: "Billing", Raw: []byte{0xFB, 0xEF, 0xBE}}

func testCommit(revision int) es.AggregateCommit {
	return es.AggregateCommit{
		BoundedContext:  testID.BoundedContext,
		AggregateRootID: testID.Raw,
		Revision:        revision,
		Timestamp:       int64(revision) * 1000,
		Payload:         []byte{0x01, 0x02},
	}
}

func newMockStore(t *testing.T, opts ...mysql.StoreOption) (*mysql.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return mysql.NewStore(db, partition.NewDefaultRegistry("Billing"), mysql.NewStoreConfig(opts...)), mock
}

func TestAppend(t *testing.T) {
	s, mock := newMockStore(t, mysql.WithSerializer(serializer.NewJSON()))
	commit := testCommit(4)
	data, err := serializer.NewJSON().Serialize(commit)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `Billing_es_++` (`AggregateId`, `Revision`, `Timestamp`, `Data`) VALUES (?, ?, ?, ?)")).
		WithArgs("++++", 4, int64(4000), data).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, s.Append(context.Background(), commit))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_DuplicateEntry(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `Billing_es_++`")).
		WillReturnError(&driver.MySQLError{Number: 1062, Message: "Duplicate entry '++++-4' for key 'PRIMARY'"})

	err := s.Append(context.Background(), testCommit(4))
	assert.ErrorIs(t, err, store.ErrOptimisticConcurrency)

	var mysqlErr *driver.MySQLError
	assert.True(t, errors.As(err, &mysqlErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_OtherEngineErrorIsStorage(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `Billing_es_++`")).
		WillReturnError(&driver.MySQLError{Number: 1146, Message: "Table 'commits.Billing_es_++' doesn't exist"})

	err := s.Append(context.Background(), testCommit(0))
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.NotErrorIs(t, err, store.ErrOptimisticConcurrency)
}

// failingSerializer refuses every commit.
type failingSerializer struct{ err error }

func (f failingSerializer) Serialize(es.AggregateCommit) ([]byte, error) { return nil, f.err }

func (f failingSerializer) Deserialize([]byte) (es.AggregateCommit, error) {
	return es.AggregateCommit{}, f.err
}

func TestAppend_SerializationFailureIsStorage(t *testing.T) {
	cause := errors.New("unsupported payload")
	s, mock := newMockStore(t, mysql.WithSerializer(failingSerializer{err: cause}))

	err := s.Append(context.Background(), testCommit(0))
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.NotErrorIs(t, err, store.ErrOptimisticConcurrency)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad(t *testing.T) {
	s, mock := newMockStore(t)
	cbor := serializer.NewCBOR()

	rows := sqlmock.NewRows([]string{"Revision", "Data"})
	for rev := 0; rev < 3; rev++ {
		data, err := cbor.Serialize(testCommit(rev))
		require.NoError(t, err)
		rows.AddRow(rev, data)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `Revision`, `Data` FROM `Billing_es_++` WHERE `AggregateId` = ? ORDER BY `Revision` ASC")).
		WithArgs("++++").
		WillReturnRows(rows)

	stream, err := s.Load(context.Background(), testID)
	require.NoError(t, err)
	require.Equal(t, 3, stream.Len())
	assert.Equal(t, 2, stream.LastRevision())
	assert.Equal(t, testCommit(1), stream.Commits[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_RevisionMismatchFailsWholeLoad(t *testing.T) {
	s, mock := newMockStore(t)

	data, err := serializer.NewCBOR().Serialize(testCommit(7))
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `Revision`, `Data` FROM `Billing_es_++`")).
		WithArgs("++++").
		WillReturnRows(sqlmock.NewRows([]string{"Revision", "Data"}).AddRow(0, data))

	stream, err := s.Load(context.Background(), testID)
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.ErrorIs(t, err, es.ErrCommitMismatch)
	assert.True(t, stream.IsEmpty())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_ShortIdentity(t *testing.T) {
	s, mock := newMockStore(t)

	_, err := s.Load(context.Background(), es.AggregateID{BoundedContext: "Billing"})
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.ErrorIs(t, err, partition.ErrIdentityTooShort)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, mysql.IsUniqueViolation(nil))
	assert.False(t, mysql.IsUniqueViolation(errors.New("Duplicate entry")))
	assert.False(t, mysql.IsUniqueViolation(&driver.MySQLError{Number: 1213}))
	assert.True(t, mysql.IsUniqueViolation(&driver.MySQLError{Number: 1062}))
}
