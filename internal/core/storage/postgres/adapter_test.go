package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	v1 "github.com/aevon-lab/tracelens/internal/api/v1"
	"github.com/aevon-lab/tracelens/internal/core/fieldpath"
	"github.com/aevon-lab/tracelens/internal/core/storage"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Insert(t *testing.T) {
	tests := []struct {
		name       string
		docs       []v1.Document
		mockResult func(mock sqlmock.Sqlmock)
		assertions func(t *testing.T, err error)
	}{
		{
			name: "inserts in order",
			docs: []v1.Document{
				{"id": map[string]any{"site": "ALIC"}, "val": map[string]any{"x": 1}},
				{"id": map[string]any{"site": "YAR2"}, "val": map[string]any{"x": 2}},
			},
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryInsertDocument)).
					WithArgs("Trace", []byte(`{"id":{"site":"ALIC"},"val":{"x":1}}`)).
					WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(1)))
				mock.ExpectQuery(regexp.QuoteMeta(queryInsertDocument)).
					WithArgs("Trace", []byte(`{"id":{"site":"YAR2"},"val":{"x":2}}`)).
					WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(2)))
			},
			assertions: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "invalid document writes nothing",
			docs: []v1.Document{
				{"id": map[string]any{"site": "ALIC"}, "val": map[string]any{"x": 1}},
				{"id": "ALIC"},
			},
			assertions: func(t *testing.T, err error) {
				require.ErrorContains(t, err, "document 1")
			},
		},
		{
			name: "network failure maps to ErrUnreachable",
			docs: []v1.Document{
				{"id": map[string]any{"site": "ALIC"}, "val": map[string]any{"x": 1}},
			},
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryInsertDocument)).
					WillReturnError(&net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")})
			},
			assertions: func(t *testing.T, err error) {
				require.ErrorIs(t, err, storage.ErrUnreachable)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t)
			defer db.Close()

			if tc.mockResult != nil {
				tc.mockResult(mock)
			}

			err := adapter.Insert(context.Background(), "Trace", tc.docs...)
			tc.assertions(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_Find(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryFindDocuments)).
		WithArgs("Trace", []byte(`{"id":{"site":"ALIC"}}`)).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).
			AddRow([]byte(`{"id":{"site":"ALIC","time":"t0"},"val":{"x":1}}`)).
			AddRow([]byte(`{"id":{"site":"ALIC","time":"t1"},"val":{"x":4}}`)),
		).RowsWillBeClosed()

	docs, err := adapter.Find(context.Background(), "Trace", []storage.Match{
		{Path: fieldpath.IdentityPath("site"), Value: "ALIC"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "t0", docs[0].Identity()["time"])
	require.Equal(t, float64(4), docs[1].Values()["x"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_FindWithoutMatchUsesEmptyContainment(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryFindDocuments)).
		WithArgs("Trace", []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))

	docs, err := adapter.Find(context.Background(), "Trace", nil)
	require.NoError(t, err)
	require.Empty(t, docs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Aggregate(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryAggregateDocuments)).
		WithArgs("Trace", []byte(`{"id":{"site":"ALIC"}}`), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"bucket", "vals", "ids"}).
			AddRow(
				[]byte(`{"site":"ALIC","time":"t0"}`),
				[]byte(`[{"x":1,"z":10},{"x":2,"z":20}]`),
				[]byte(`[{"site":"ALIC","time":"t0","sat":"G01"},{"site":"ALIC","time":"t0","sat":"G02"}]`),
			).
			AddRow(
				[]byte(`{"site":"ALIC","time":"t1"}`),
				[]byte(`[{"x":4},{"z":5}]`),
				[]byte(`[{"site":"ALIC","time":"t1","sat":"G01"},{"site":"ALIC","time":"t1","sat":"G01"}]`),
			),
		).RowsWillBeClosed()

	buckets, err := adapter.Aggregate(context.Background(), storage.AggregateRequest{
		Collection: "Trace",
		Match:      []storage.Match{{Path: fieldpath.IdentityPath("site"), Value: "ALIC"}},
		Key:        []fieldpath.FieldPath{fieldpath.IdentityPath("site"), fieldpath.IdentityPath("time")},
		Target:     "x",
		Collect:    []string{"z"},
	})
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	require.Equal(t, map[string]any{"site": "ALIC", "time": "t0"}, buckets[0].Bucket())
	require.Equal(t, []any{float64(1), float64(2)}, buckets[0]["y"])
	require.Equal(t, []any{float64(10), float64(20)}, buckets[0]["z"])
	require.Equal(t, []any{"G01", "G02"}, buckets[0]["sat"])

	require.Equal(t, []any{float64(4)}, buckets[1]["y"])
	require.Equal(t, []any{float64(5)}, buckets[1]["z"])
	require.Equal(t, []any{"G01"}, buckets[1]["sat"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_AggregateQueryError(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	queryErr := errors.New("syntax error")
	mock.ExpectQuery(regexp.QuoteMeta(queryAggregateDocuments)).WillReturnError(queryErr)

	_, err := adapter.Aggregate(context.Background(), storage.AggregateRequest{Collection: "Trace", Target: "x"})
	require.ErrorIs(t, err, queryErr)
	require.NotErrorIs(t, err, storage.ErrUnreachable)
	require.ErrorContains(t, err, "failed to aggregate documents")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Distinct(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryDistinctValues)).
		WithArgs("Trace", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).
			AddRow([]byte(`"B"`)).
			AddRow([]byte(`"A"`)).
			AddRow([]byte(`3`)),
		).RowsWillBeClosed()

	values, err := adapter.Distinct(context.Background(), "Trace", fieldpath.IdentityPath("site"))
	require.NoError(t, err)
	require.Equal(t, []any{"B", "A", float64(3)}, values)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Keys(t *testing.T) {
	tests := []struct {
		name      string
		sample    int
		limitArgs driver.Value
	}{
		{name: "sampled", sample: 1000, limitArgs: int64(1000)},
		{name: "whole collection", sample: 0, limitArgs: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t)
			defer db.Close()

			mock.ExpectQuery(regexp.QuoteMeta(queryKeys)).
				WithArgs("Trace", storage.SubIdentity, tc.limitArgs).
				WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("sat").AddRow("site"))

			keys, err := adapter.Keys(context.Background(), "Trace", storage.SubIdentity, tc.sample)
			require.NoError(t, err)
			require.Equal(t, []string{"sat", "site"}, keys)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_PingMapsToErrUnreachable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	adapter := &Adapter{db: db}
	err = adapter.Ping(context.Background())
	require.ErrorIs(t, err, storage.ErrUnreachable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_CloseReturnsDBCloseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbCloseErr := errors.New("db close failed")

	adapter := &Adapter{db: db}
	for _, target := range []struct {
		stmt  **sql.Stmt
		query string
	}{
		{&adapter.stmtInsert, queryInsertDocument},
		{&adapter.stmtFind, queryFindDocuments},
		{&adapter.stmtAggregate, queryAggregateDocuments},
		{&adapter.stmtDistinct, queryDistinctValues},
		{&adapter.stmtKeys, queryKeys},
	} {
		mock.ExpectPrepare(regexp.QuoteMeta(target.query)).WillBeClosed()
		stmt, err := db.Prepare(target.query)
		require.NoError(t, err)
		*target.stmt = stmt
	}

	mock.ExpectClose().WillReturnError(dbCloseErr)

	err = adapter.Close()
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to close database")
	require.ErrorIs(t, err, dbCloseErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyArrays(t *testing.T) {
	names, paths := keyArrays([]fieldpath.FieldPath{
		fieldpath.IdentityPath("site"),
		fieldpath.PlainPath("val.x"),
	})
	require.Equal(t, []string{"site", "val.x"}, names)
	require.Equal(t, []string{"id.site", "val.x"}, paths)
}

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := &Adapter{
		db:            db,
		stmtInsert:    mustPrepareStmt(t, db, mock, queryInsertDocument),
		stmtFind:      mustPrepareStmt(t, db, mock, queryFindDocuments),
		stmtAggregate: mustPrepareStmt(t, db, mock, queryAggregateDocuments),
		stmtDistinct:  mustPrepareStmt(t, db, mock, queryDistinctValues),
		stmtKeys:      mustPrepareStmt(t, db, mock, queryKeys),
	}

	return adapter, mock, db
}

func mustPrepareStmt(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(query))
	stmt, err := db.Prepare(query)
	require.NoError(t, err)

	return stmt
}
