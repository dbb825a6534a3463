package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Dosada05/academy-system/clock"
	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/realtime"
	"github.com/Dosada05/academy-system/repositories"
	"github.com/Dosada05/academy-system/repositories/memstore"
	"github.com/Dosada05/academy-system/testutil"
)

type publishedEvent struct {
	Type  string
	Event models.LedgerEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) PublishLedgerEvent(eventType string, event models.LedgerEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Type: eventType, Event: event})
}

func (f *fakePublisher) Events() []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedEvent(nil), f.events...)
}

// interleavingPlayers выполняет interleave один раз: сразу после первого чтения
// игрока или перед первой транзакцией журнала, смотря что случится раньше.
type interleavingPlayers struct {
	repositories.PlayerRepository
	once       sync.Once
	interleave func()
}

func (r *interleavingPlayers) GetByID(ctx context.Context, id int) (*models.Player, error) {
	p, err := r.PlayerRepository.GetByID(ctx, id)
	r.once.Do(r.interleave)
	return p, err
}

func (r *interleavingPlayers) UpdateLedger(ctx context.Context, id int, fn repositories.LedgerFunc) (*models.Player, error) {
	r.once.Do(r.interleave)
	return r.PlayerRepository.UpdateLedger(ctx, id, fn)
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

type SubscriptionServiceSuite struct {
	suite.Suite
	ctx       context.Context
	players   *memstore.Players
	publisher *fakePublisher
	clock     *clock.FixedClock
	service   SubscriptionService
}

func TestSubscriptionServiceSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.players = memstore.NewPlayers()
	s.publisher = &fakePublisher{}
	s.clock = clock.NewFixed(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC))
	s.service = NewSubscriptionService(s.players, s.publisher, s.clock, testutil.NopLogger())
}

func (s *SubscriptionServiceSuite) addPlayer(name string, amount float64, active bool) *models.Player {
	sub := models.DefaultSubscription()
	sub.Amount = amount
	p := &models.Player{
		Name:           name,
		Age:            10,
		Position:       "مهاجم",
		IsActive:       active,
		Subscription:   sub,
		PaymentHistory: []models.PaymentRecord{},
	}
	s.Require().NoError(s.players.Create(s.ctx, p))
	return p
}

func (s *SubscriptionServiceSuite) TestRecordPaymentAppendsAndSyncsSnapshot() {
	ahmad := s.addPlayer("Ahmad", 20, true)

	player, err := s.service.RecordPayment(s.ctx, ahmad.ID, "2025-01", RecordPaymentInput{
		Amount:      floatPtr(20),
		Status:      "paid",
		PaymentDate: strPtr("2025-01-05"),
	})
	s.Require().NoError(err)

	s.Equal([]models.PaymentRecord{{
		Month:       "2025-01",
		Amount:      20,
		Status:      models.PaymentPaid,
		PaymentDate: strPtr("2025-01-05"),
	}}, player.PaymentHistory)
	s.Equal(models.PaymentPaid, player.Subscription.Status)
	s.Equal("2025-01-05", *player.Subscription.LastPaymentDate)

	stored, err := s.players.GetByID(s.ctx, ahmad.ID)
	s.Require().NoError(err)
	s.Equal(player.PaymentHistory, stored.PaymentHistory)
	s.Equal(models.PaymentPaid, stored.Subscription.Status)
}

func (s *SubscriptionServiceSuite) TestMissingMonthIsUnpaid() {
	ahmad := s.addPlayer("Ahmad", 20, true)
	_, err := s.service.RecordPayment(s.ctx, ahmad.ID, "2025-01", RecordPaymentInput{
		Amount: floatPtr(20), Status: "paid", PaymentDate: strPtr("2025-01-05"),
	})
	s.Require().NoError(err)

	status, err := s.service.PaymentStatusForMonth(s.ctx, ahmad.ID, "2025-02")
	s.Require().NoError(err)
	s.Equal(models.MonthlyPaymentStatus{Paid: false, PaymentDate: nil, Amount: 20}, status)
}

func (s *SubscriptionServiceSuite) TestCorrectionOverwritesPastMonthAndSnapshot() {
	ahmad := s.addPlayer("Ahmad", 20, true)
	_, err := s.service.RecordPayment(s.ctx, ahmad.ID, "2025-01", RecordPaymentInput{
		Amount: floatPtr(20), Status: "paid", PaymentDate: strPtr("2025-01-05"),
	})
	s.Require().NoError(err)

	player, err := s.service.RecordPayment(s.ctx, ahmad.ID, "2025-01", RecordPaymentInput{
		Amount: floatPtr(20), Status: "unpaid",
	})
	s.Require().NoError(err)

	s.Require().Len(player.PaymentHistory, 1)
	s.Equal(models.PaymentUnpaid, player.PaymentHistory[0].Status)
	s.Nil(player.PaymentHistory[0].PaymentDate)
	// снимок отражает последнюю запись, даже если месяц прошедший
	s.Equal(models.PaymentUnpaid, player.Subscription.Status)
	s.Nil(player.Subscription.LastPaymentDate)
}

func (s *SubscriptionServiceSuite) TestRepeatedRecordIsIdempotent() {
	p := s.addPlayer("Omar", 20, true)
	input := RecordPaymentInput{Amount: floatPtr(25), Status: "paid", PaymentDate: strPtr("2025-03-02"), Notes: "cash"}

	first, err := s.service.RecordPayment(s.ctx, p.ID, "2025-03", input)
	s.Require().NoError(err)
	second, err := s.service.RecordPayment(s.ctx, p.ID, "2025-03", input)
	s.Require().NoError(err)

	s.Equal(first.PaymentHistory, second.PaymentHistory)
	s.Len(second.PaymentHistory, 1)
}

func (s *SubscriptionServiceSuite) TestReportExcludesInactivePlayers() {
	a := s.addPlayer("A", 20, true)
	b := s.addPlayer("B", 30, true)

	_, err := s.service.RecordPayment(s.ctx, a.ID, "2025-03", RecordPaymentInput{
		Amount: floatPtr(20), Status: "paid", PaymentDate: strPtr("2025-03-03"),
	})
	s.Require().NoError(err)

	report, err := s.service.MonthlyReport(s.ctx, "2025-03")
	s.Require().NoError(err)
	s.Equal(1, report.PaidCount)
	s.Equal(1, report.UnpaidCount)
	s.Equal(20.0, report.PaidAmount)
	s.Equal(30.0, report.UnpaidAmount)
	s.Equal(50.0, report.TotalAmount)
	s.Require().NotNil(report.CollectionPercent)
	s.InDelta(40.0, *report.CollectionPercent, 0.001)

	inactive := false
	s.Require().NoError(s.players.Update(s.ctx, b.ID, models.PlayerPatch{IsActive: &inactive}))

	report, err = s.service.MonthlyReport(s.ctx, "2025-03")
	s.Require().NoError(err)
	s.Equal(1, report.PaidCount)
	s.Equal(0, report.UnpaidCount)
	s.Equal(20.0, report.TotalAmount)
	s.InDelta(100.0, *report.CollectionPercent, 0.001)
}

func (s *SubscriptionServiceSuite) TestReportWithoutPlayersHasNoPercent() {
	report, err := s.service.MonthlyReport(s.ctx, "")
	s.Require().NoError(err)
	s.Equal("2025-03", report.Month)
	s.Nil(report.CollectionPercent)
	s.Equal("-", report.CollectionDisplay)
}

func (s *SubscriptionServiceSuite) TestRecordPaymentUnknownPlayer() {
	_, err := s.service.RecordPayment(s.ctx, 404, "2025-03", RecordPaymentInput{Status: "paid"})
	s.ErrorIs(err, ErrPlayerNotFound)
	s.Empty(s.publisher.Events())

	players, err := s.players.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(players)
}

func (s *SubscriptionServiceSuite) TestRecordPaymentRejectsInvalidInput() {
	p := s.addPlayer("Ali", 20, true)

	cases := []struct {
		name  string
		month string
		input RecordPaymentInput
		field string
	}{
		{"bad status", "2025-03", RecordPaymentInput{Status: "partial"}, "status"},
		{"negative amount", "2025-03", RecordPaymentInput{Amount: floatPtr(-5), Status: "paid"}, "amount"},
		{"bad date", "2025-03", RecordPaymentInput{Status: "paid", PaymentDate: strPtr("05/03/2025")}, "payment_date"},
		{"empty month", "", RecordPaymentInput{Status: "paid"}, "month"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.RecordPayment(s.ctx, p.ID, tc.month, tc.input)
			s.Require().ErrorIs(err, ErrValidationFailed)

			var verr *ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Contains(verr.Fields, tc.field)
		})
	}

	stored, err := s.players.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Empty(stored.PaymentHistory)
	s.Equal(models.PaymentUnpaid, stored.Subscription.Status)
}

func (s *SubscriptionServiceSuite) TestRecordPaymentDefaults() {
	p := s.addPlayer("Yousef", 35, true)

	player, err := s.service.RecordPayment(s.ctx, p.ID, "2025-04", RecordPaymentInput{})
	s.Require().NoError(err)
	s.Require().Len(player.PaymentHistory, 1)
	s.Equal(35.0, player.PaymentHistory[0].Amount)
	s.Equal(models.PaymentUnpaid, player.PaymentHistory[0].Status)

	free := s.addPlayer("Karim", 0, true)
	player, err = s.service.RecordPayment(s.ctx, free.ID, "2025-04", RecordPaymentInput{Status: "paid"})
	s.Require().NoError(err)
	s.Equal(models.DefaultSubscriptionAmount, player.PaymentHistory[0].Amount)
}

func (s *SubscriptionServiceSuite) TestRecordPaymentPublishesEvent() {
	p := s.addPlayer("Ahmad", 20, true)
	_, err := s.service.RecordPayment(s.ctx, p.ID, "2025-03", RecordPaymentInput{Status: "paid", PaymentDate: strPtr("2025-03-01")})
	s.Require().NoError(err)

	events := s.publisher.Events()
	s.Require().Len(events, 1)
	s.Equal(realtime.EventPaymentRecorded, events[0].Type)
	s.Equal(p.ID, events[0].Event.PlayerID)
	s.Require().NotNil(events[0].Event.Record)
	s.Equal("2025-03", events[0].Event.Record.Month)
	s.Equal(models.PaymentPaid, events[0].Event.Snapshot.Status)
}

func (s *SubscriptionServiceSuite) TestLegacyPlayerFallsBackToSnapshot() {
	legacy := &models.Player{
		Name:     "Legacy",
		Age:      12,
		Position: "GK",
		IsActive: true,
		Subscription: models.Subscription{
			Type: models.SubscriptionMonthly, Amount: 20, Status: models.PaymentPaid, LastPaymentDate: strPtr("2024-11-01"),
		},
	}
	s.Require().NoError(s.players.Create(s.ctx, legacy))

	status, err := s.service.PaymentStatusForMonth(s.ctx, legacy.ID, "2030-01")
	s.Require().NoError(err)
	s.True(status.Paid)
	s.Equal("2024-11-01", *status.PaymentDate)
}

func (s *SubscriptionServiceSuite) TestListSubscriptionsFiltersByStatus() {
	a := s.addPlayer("A", 20, true)
	s.addPlayer("B", 20, true)
	s.addPlayer("C", 20, false)

	_, err := s.service.RecordPayment(s.ctx, a.ID, "2025-03", RecordPaymentInput{Status: "paid"})
	s.Require().NoError(err)

	all, err := s.service.ListSubscriptions(s.ctx, SubscriptionFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal("2025-03", all[0].Month)

	paid, err := s.service.ListSubscriptions(s.ctx, SubscriptionFilter{Month: "2025-03", Status: models.PaymentPaid})
	s.Require().NoError(err)
	s.Require().Len(paid, 1)
	s.Equal("A", paid[0].PlayerName)

	unpaid, err := s.service.ListSubscriptions(s.ctx, SubscriptionFilter{Status: models.PaymentUnpaid, IncludeInactive: true})
	s.Require().NoError(err)
	s.Len(unpaid, 2)

	_, err = s.service.ListSubscriptions(s.ctx, SubscriptionFilter{Status: "late"})
	s.ErrorIs(err, ErrValidationFailed)
}

func (s *SubscriptionServiceSuite) TestUpdateSubscriptionKeepsHistory() {
	p := s.addPlayer("Sami", 20, true)
	_, err := s.service.RecordPayment(s.ctx, p.ID, "2025-02", RecordPaymentInput{Status: "paid"})
	s.Require().NoError(err)

	player, err := s.service.UpdateSubscription(s.ctx, p.ID, SubscriptionInput{Amount: floatPtr(25), Notes: "discount"})
	s.Require().NoError(err)
	s.Equal(25.0, player.Subscription.Amount)
	s.Equal("discount", player.Subscription.Notes)
	s.Equal(models.PaymentPaid, player.Subscription.Status)

	stored, err := s.players.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Len(stored.PaymentHistory, 1)
	s.Equal(25.0, stored.Subscription.Amount)

	_, err = s.service.UpdateSubscription(s.ctx, p.ID, SubscriptionInput{Status: "maybe"})
	s.ErrorIs(err, ErrValidationFailed)

	_, err = s.service.UpdateSubscription(s.ctx, 999, SubscriptionInput{})
	s.ErrorIs(err, ErrPlayerNotFound)
}

func (s *SubscriptionServiceSuite) TestUpdateSubscriptionDoesNotOverwriteConcurrentPayment() {
	p := s.addPlayer("Sami", 20, true)

	repo := &interleavingPlayers{
		PlayerRepository: s.players,
		interleave: func() {
			_, err := s.service.RecordPayment(s.ctx, p.ID, "2025-03", RecordPaymentInput{
				Status:      "paid",
				PaymentDate: strPtr("2025-03-10"),
			})
			s.Require().NoError(err)
		},
	}
	editor := NewSubscriptionService(repo, s.publisher, s.clock, testutil.NopLogger())

	player, err := editor.UpdateSubscription(s.ctx, p.ID, SubscriptionInput{Notes: "discount"})
	s.Require().NoError(err)
	s.Equal(models.PaymentPaid, player.Subscription.Status)

	stored, err := s.players.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.PaymentHistory, 1)
	s.Equal("discount", stored.Subscription.Notes)
	s.Equal(models.PaymentPaid, stored.Subscription.Status)
	s.Require().NotNil(stored.Subscription.LastPaymentDate)
	s.Equal("2025-03-10", *stored.Subscription.LastPaymentDate)

	status, err := s.service.PaymentStatusForMonth(s.ctx, p.ID, "2025-03")
	s.Require().NoError(err)
	s.True(status.Paid)
}

func (s *SubscriptionServiceSuite) TestConcurrentPaymentsAndSubscriptionEdits() {
	p := s.addPlayer("Omar", 20, true)

	var wg sync.WaitGroup
	for _, m := range []string{"2025-01", "2025-02", "2025-03"} {
		wg.Add(2)
		go func(month string) {
			defer wg.Done()
			_, err := s.service.RecordPayment(s.ctx, p.ID, month, RecordPaymentInput{
				Status:      "paid",
				PaymentDate: strPtr(month + "-05"),
			})
			s.NoError(err)
		}(m)
		go func(note string) {
			defer wg.Done()
			_, err := s.service.UpdateSubscription(s.ctx, p.ID, SubscriptionInput{Notes: note})
			s.NoError(err)
		}("note " + m)
	}
	wg.Wait()

	stored, err := s.players.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Len(stored.PaymentHistory, 3)
	s.Equal(models.PaymentPaid, stored.Subscription.Status)
	s.NotNil(stored.Subscription.LastPaymentDate)
	s.Contains(stored.Subscription.Notes, "note ")
}

func (s *SubscriptionServiceSuite) TestConcurrentPaymentsForOnePlayer() {
	p := s.addPlayer("Ahmad", 20, true)

	var wg sync.WaitGroup
	months := []string{"2025-01", "2025-02", "2025-03", "2025-01", "2025-02", "2025-03"}
	for _, m := range months {
		wg.Add(1)
		go func(month string) {
			defer wg.Done()
			_, err := s.service.RecordPayment(s.ctx, p.ID, month, RecordPaymentInput{Status: "paid"})
			s.NoError(err)
		}(m)
	}
	wg.Wait()

	stored, err := s.players.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Len(stored.PaymentHistory, 3)
}

func (s *SubscriptionServiceSuite) TestAvailableMonths() {
	months := s.service.AvailableMonths()
	s.Require().Len(months, 6)
	s.Equal("2024-12", months[0].Month)
	s.Equal("2025-05", months[5].Month)
	s.True(months[3].IsCurrent)
	s.Equal("2025-03", s.service.CurrentMonth())
}
