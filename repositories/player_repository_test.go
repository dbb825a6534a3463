package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"github.com/Dosada05/academy-system/models"
)

var playerColumnNames = []string{
	"id", "name", "age", "position", "bio", "achievements", "images", "videos",
	"is_featured", "is_active", "join_date",
	"subscription_type", "subscription_amount", "subscription_status",
	"subscription_last_payment", "subscription_notes", "payment_history",
	"created_at", "updated_at",
}

type PlayerRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	repo PlayerRepository
	ctx  context.Context
	now  time.Time
}

func TestPlayerRepositorySuite(t *testing.T) {
	suite.Run(t, new(PlayerRepositorySuite))
}

func (s *PlayerRepositorySuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.db = db
	s.mock = mock
	s.repo = NewPostgresPlayerRepository(db)
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *PlayerRepositorySuite) TearDownTest() {
	s.Require().NoError(s.mock.ExpectationsWereMet())
	_ = s.db.Close()
}

func (s *PlayerRepositorySuite) playerRow(history interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(playerColumnNames).AddRow(
		7, "Ahmad", 10, "مهاجم", nil, "{goal,cup}", "{}", "{}",
		false, true, s.now,
		"monthly", 20.0, "unpaid",
		nil, nil, history,
		s.now, s.now,
	)
}

func (s *PlayerRepositorySuite) TestGetByIDDecodesRow() {
	s.mock.ExpectQuery(`FROM players WHERE id = \$1`).
		WithArgs(7).
		WillReturnRows(s.playerRow([]byte(`[{"month":"2025-01","amount":20,"status":"paid","payment_date":"2025-01-05"}]`)))

	player, err := s.repo.GetByID(s.ctx, 7)
	s.Require().NoError(err)

	s.Equal("Ahmad", player.Name)
	s.Equal([]string{"goal", "cup"}, player.Achievements)
	s.Equal(models.PaymentUnpaid, player.Subscription.Status)
	s.Nil(player.Subscription.LastPaymentDate)
	s.Require().Len(player.PaymentHistory, 1)
	s.Equal("2025-01", player.PaymentHistory[0].Month)
	s.Equal("2025-01-05", *player.PaymentHistory[0].PaymentDate)
}

func (s *PlayerRepositorySuite) TestGetByIDNullHistoryIsLegacy() {
	s.mock.ExpectQuery(`FROM players WHERE id = \$1`).
		WithArgs(7).
		WillReturnRows(s.playerRow(nil))

	player, err := s.repo.GetByID(s.ctx, 7)
	s.Require().NoError(err)
	s.Nil(player.PaymentHistory)
}

func (s *PlayerRepositorySuite) TestGetByIDNotFound() {
	s.mock.ExpectQuery(`FROM players WHERE id = \$1`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := s.repo.GetByID(s.ctx, 99)
	s.ErrorIs(err, ErrPlayerNotFound)
}

func (s *PlayerRepositorySuite) TestUpdateLedgerSingleTransaction() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FROM players WHERE id = \$1 FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(s.playerRow([]byte(`[]`)))
	s.mock.ExpectQuery(`UPDATE players SET\s+payment_history = \$1,\s+subscription_status = \$2,\s+subscription_last_payment = \$3`).
		WithArgs(
			`[{"month":"2025-03","amount":20,"status":"paid","payment_date":"2025-03-02"}]`,
			models.PaymentPaid,
			sqlmock.AnyArg(),
			"monthly",
			20.0,
			nil,
			7,
		).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(s.now))
	s.mock.ExpectCommit()

	date := "2025-03-02"
	player, err := s.repo.UpdateLedger(s.ctx, 7, func(p *models.Player) error {
		p.PaymentHistory = append(p.PaymentHistory, models.PaymentRecord{
			Month: "2025-03", Amount: 20, Status: models.PaymentPaid, PaymentDate: &date,
		})
		p.Subscription.Status = models.PaymentPaid
		p.Subscription.LastPaymentDate = &date
		return nil
	})
	s.Require().NoError(err)
	s.Equal(models.PaymentPaid, player.Subscription.Status)
	s.Len(player.PaymentHistory, 1)
}

func (s *PlayerRepositorySuite) TestUpdateLedgerWritesSnapshotEdits() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(s.playerRow([]byte(`[]`)))
	s.mock.ExpectQuery(`subscription_type = \$4,\s+subscription_amount = \$5,\s+subscription_notes = \$6`).
		WithArgs(sqlmock.AnyArg(), models.PaymentUnpaid, nil, "quarterly", 25.0, "discount", 7).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(s.now))
	s.mock.ExpectCommit()

	player, err := s.repo.UpdateLedger(s.ctx, 7, func(p *models.Player) error {
		p.Subscription.Type = "quarterly"
		p.Subscription.Amount = 25
		p.Subscription.Notes = "discount"
		return nil
	})
	s.Require().NoError(err)
	s.Equal("discount", player.Subscription.Notes)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PlayerRepositorySuite) TestUpdateLedgerMapsCheckViolation() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(s.playerRow([]byte(`[]`)))
	s.mock.ExpectQuery(`UPDATE players SET`).
		WillReturnError(&pq.Error{Code: "23514"})
	s.mock.ExpectRollback()

	_, err := s.repo.UpdateLedger(s.ctx, 7, func(p *models.Player) error {
		p.Subscription.Amount = -1
		return nil
	})
	s.ErrorIs(err, ErrPlayerInvalidField)
}

func (s *PlayerRepositorySuite) TestUpdateLedgerRollsBackOnCallbackError() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(s.playerRow(nil))
	s.mock.ExpectRollback()

	boom := errors.New("boom")
	_, err := s.repo.UpdateLedger(s.ctx, 7, func(p *models.Player) error { return boom })
	s.ErrorIs(err, boom)
}

func (s *PlayerRepositorySuite) TestUpdateLedgerMissingPlayer() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)
	s.mock.ExpectRollback()

	called := false
	_, err := s.repo.UpdateLedger(s.ctx, 42, func(p *models.Player) error {
		called = true
		return nil
	})
	s.ErrorIs(err, ErrPlayerNotFound)
	s.False(called)
}

func (s *PlayerRepositorySuite) TestUpdateLedgerRollsBackOnWriteFailure() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(s.playerRow([]byte(`[]`)))
	s.mock.ExpectQuery(`UPDATE players SET`).
		WillReturnError(errors.New("connection reset"))
	s.mock.ExpectRollback()

	_, err := s.repo.UpdateLedger(s.ctx, 7, func(p *models.Player) error { return nil })
	s.Error(err)
}

func (s *PlayerRepositorySuite) TestUpdateBuildsPartialQuery() {
	name := "Omar"
	empty := []string{}
	s.mock.ExpectExec(`UPDATE players SET name = \$1, images = \$2, updated_at = NOW\(\) WHERE id = \$3`).
		WithArgs("Omar", sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.repo.Update(s.ctx, 7, models.PlayerPatch{Name: &name, Images: &empty})
	s.NoError(err)
}

func (s *PlayerRepositorySuite) TestUpdateMissingPlayer() {
	age := 12
	s.mock.ExpectExec(`UPDATE players SET age = \$1`).
		WithArgs(12, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.repo.Update(s.ctx, 99, models.PlayerPatch{Age: &age})
	s.ErrorIs(err, ErrPlayerNotFound)
}

func (s *PlayerRepositorySuite) TestDeleteMissingPlayer() {
	s.mock.ExpectExec(`DELETE FROM players WHERE id = \$1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s.ErrorIs(s.repo.Delete(s.ctx, 5), ErrPlayerNotFound)
}

func (s *PlayerRepositorySuite) TestStats() {
	s.mock.ExpectQuery(`COUNT\(\*\) FILTER`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active", "featured"}).AddRow(5, 4, 1))

	stats, err := s.repo.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(PlayerStats{Total: 5, Active: 4, Featured: 1}, stats)
}
