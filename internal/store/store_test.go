package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"copyright-map/internal/terms"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTerms(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"ccode", "term"}).
		AddRow("CAN", "70").
		AddRow("MEX", "100")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ccode, term FROM _copyright_terms ORDER BY ccode")).
		WillReturnRows(rows)

	tb, err := AttachDB(db).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Len())
	r, ok := tb.Find("MEX")
	require.True(t, ok)
	assert.Equal(t, "100", r.Term)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadTermsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT ccode").WillReturnError(errors.New("relation does not exist"))
	_, err = AttachDB(db).Load(context.Background())
	assert.Error(t, err)
}

func TestUpsertTerms(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO _copyright_terms")).
		WithArgs("USA", "70").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO _copyright_terms")).
		WithArgs("CIV", "99").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tb := terms.NewTable([]terms.Record{{Code: "USA", Term: "70"}, {Code: "", Term: "50"}, {Code: "CIV", Term: "99"}})
	n, err := AttachDB(db).UpsertTerms(context.Background(), tb)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertTermsRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO _copyright_terms")).
		WithArgs("USA", "70").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = AttachDB(db).UpsertTerms(context.Background(), terms.NewTable([]terms.Record{{Code: "USA", Term: "70"}}))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenderStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := AttachDB(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE _map_render_stats_total")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO _map_render_stats_daily")).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.IncrRenders(context.Background()))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT renders FROM _map_render_stats_total")).
		WillReturnRows(sqlmock.NewRows([]string{"renders"}).AddRow(42))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT renders FROM _map_render_stats_daily")).
		WillReturnRows(sqlmock.NewRows([]string{"renders"}))
	tot, err := s.GetTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), tot.Total)
	assert.Equal(t, int64(0), tot.Today)
	assert.NoError(t, mock.ExpectationsWereMet())
}
