package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/gestaozabele/comercial/internal/store"
)

type PGStoreTestSuite struct {
	suite.Suite
	mock  pgxmock.PgxPoolIface
	store *Store
	ctx   context.Context
}

func (s *PGStoreTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(s.T(), err)
	s.mock = mock
	s.store = New(mock)
	s.ctx = context.Background()
}

func (s *PGStoreTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func TestPGStoreTestSuite(t *testing.T) {
	suite.Run(t, new(PGStoreTestSuite))
}

func (s *PGStoreTestSuite) TestSelectBuildsFiltersOrderAndPage() {
	s.mock.ExpectQuery(`SELECT * FROM "oportunidades" WHERE "status" = $1 AND "responsavel_id" IS NULL ORDER BY "created_at" DESC LIMIT 10 OFFSET 20`).
		WithArgs("negociacao").
		WillReturnRows(s.mock.NewRows([]string{"id", "titulo", "status"}).
			AddRow("op-1", "Contrato de limpeza", "negociacao"))

	q := store.Where("status", "negociacao").Eq("responsavel_id", nil).OrderBy("created_at", true).Page(10, 20)
	rows, err := s.store.Select(s.ctx, "oportunidades", q)

	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("op-1", rows[0]["id"])
	s.Equal("Contrato de limpeza", rows[0]["titulo"])
}

func (s *PGStoreTestSuite) TestSelectEmptyReturnsEmptySlice() {
	s.mock.ExpectQuery(`SELECT * FROM "clientes"`).
		WillReturnRows(s.mock.NewRows([]string{"id"}))

	rows, err := s.store.Select(s.ctx, "clientes", store.Query{})

	s.Require().NoError(err)
	s.NotNil(rows)
	s.Empty(rows)
}

func (s *PGStoreTestSuite) TestInsertSortsColumns() {
	s.mock.ExpectQuery(`INSERT INTO "clientes" ("ativo", "id", "nome") VALUES ($1, $2, $3) RETURNING *`).
		WithArgs(true, "c1", "Prefeitura de Zabelê").
		WillReturnRows(s.mock.NewRows([]string{"id", "nome", "ativo"}).
			AddRow("c1", "Prefeitura de Zabelê", true))

	row, err := s.store.Insert(s.ctx, "clientes", store.Row{"nome": "Prefeitura de Zabelê", "id": "c1", "ativo": true})

	s.Require().NoError(err)
	s.Equal("c1", row["id"])
	s.Equal(true, row["ativo"])
}

func (s *PGStoreTestSuite) TestInsertUniqueViolationIsConflict() {
	s.mock.ExpectQuery(`INSERT INTO "users" ("email") VALUES ($1) RETURNING *`).
		WithArgs("ana@zabele.com").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := s.store.Insert(s.ctx, "users", store.Row{"email": "ana@zabele.com"})

	s.ErrorIs(err, store.ErrConflict)
}

func (s *PGStoreTestSuite) TestUpdateNumbersPlaceholdersAfterSet() {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.mock.ExpectQuery(`UPDATE "oportunidades" SET "status" = $1, "updated_at" = $2 WHERE "id" = $3 RETURNING *`).
		WithArgs("ganho", at, "op-1").
		WillReturnRows(s.mock.NewRows([]string{"id", "status"}).AddRow("op-1", "ganho"))

	rows, err := s.store.Update(s.ctx, "oportunidades", store.Where("id", "op-1"),
		store.Row{"updated_at": at, "status": "ganho"})

	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("ganho", rows[0]["status"])
}

func (s *PGStoreTestSuite) TestUpdateOneWithoutRowsIsNotFound() {
	s.mock.ExpectQuery(`UPDATE "oportunidades" SET "status" = $1 WHERE "id" = $2 RETURNING *`).
		WithArgs("ganho", "missing").
		WillReturnRows(s.mock.NewRows([]string{"id", "status"}))

	_, err := store.UpdateOne(s.ctx, s.store, "oportunidades", store.Where("id", "missing"), store.Row{"status": "ganho"})

	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PGStoreTestSuite) TestDeleteReportsAffectedRows() {
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.mock.ExpectExec(`DELETE FROM "refresh_tokens" WHERE "expires_at" < $1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.store.Delete(s.ctx, "refresh_tokens", store.Query{}.Lt("expires_at", cutoff))

	s.Require().NoError(err)
	s.Equal(3, n)
}

func (s *PGStoreTestSuite) TestWithTxCommits() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`DELETE FROM "notas" WHERE "id" = $1`).
		WithArgs("n1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	s.mock.ExpectCommit()

	err := s.store.WithTx(s.ctx, func(ctx context.Context, tx store.Store) error {
		_, err := tx.Delete(ctx, "notas", store.Where("id", "n1"))
		return err
	})

	s.NoError(err)
}

func (s *PGStoreTestSuite) TestWithTxRollsBackOnError() {
	boom := errors.New("boom")
	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	err := s.store.WithTx(s.ctx, func(ctx context.Context, tx store.Store) error {
		return boom
	})

	s.ErrorIs(err, boom)
}

func TestNormalize(t *testing.T) {
	id := [16]byte{0x6b, 0xa7, 0xb8, 0x10, 0x9d, 0xad, 0x11, 0xd1, 0x80, 0xb4, 0x00, 0xc0, 0x4f, 0xd4, 0x30, 0xc8}
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", normalize(id))
	assert.Equal(t, int64(7), normalize(int32(7)))
	assert.Equal(t, "x", normalize("x"))
}
