package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/academy-system/models"
)

func strPtr(s string) *string { return &s }

func newPlayer(amount float64) *models.Player {
	return &models.Player{
		ID:       1,
		Name:     "Ahmad",
		Age:      10,
		Position: "مهاجم",
		IsActive: true,
		Subscription: models.Subscription{
			Type:   models.SubscriptionMonthly,
			Amount: amount,
			Status: models.PaymentUnpaid,
		},
		PaymentHistory: []models.PaymentRecord{},
	}
}

func mustRecord(t *testing.T, month string, p Payment) models.PaymentRecord {
	t.Helper()
	rec, err := NewRecord(month, p)
	require.NoError(t, err)
	return rec
}

func TestUpsertPayment_FirstRecord(t *testing.T) {
	p := newPlayer(20)

	UpsertPayment(p, mustRecord(t, "2025-01", Payment{Amount: 20, Status: models.PaymentPaid, PaymentDate: strPtr("2025-01-05")}))

	require.Len(t, p.PaymentHistory, 1)
	rec := p.PaymentHistory[0]
	assert.Equal(t, "2025-01", rec.Month)
	assert.Equal(t, 20.0, rec.Amount)
	assert.Equal(t, models.PaymentPaid, rec.Status)
	require.NotNil(t, rec.PaymentDate)
	assert.Equal(t, "2025-01-05", *rec.PaymentDate)
	assert.Equal(t, models.PaymentPaid, p.Subscription.Status)
	assert.Equal(t, "2025-01-05", *p.Subscription.LastPaymentDate)
}

func TestUpsertPayment_SameRecordTwiceIsIdempotent(t *testing.T) {
	p := newPlayer(20)
	rec := mustRecord(t, "2025-03", Payment{Amount: 20, Status: models.PaymentPaid, PaymentDate: strPtr("2025-03-02")})

	UpsertPayment(p, rec)
	UpsertPayment(p, rec)

	require.Len(t, p.PaymentHistory, 1)
	assert.Equal(t, rec, p.PaymentHistory[0])
}

func TestUpsertPayment_CorrectionOverwritesAndMirrorsSnapshot(t *testing.T) {
	p := newPlayer(20)
	UpsertPayment(p, mustRecord(t, "2025-01", Payment{Amount: 20, Status: models.PaymentPaid, PaymentDate: strPtr("2025-01-05")}))
	UpsertPayment(p, mustRecord(t, "2025-02", Payment{Amount: 20, Status: models.PaymentPaid, PaymentDate: strPtr("2025-02-03")}))

	// исправление прошлого месяца всё равно перезаписывает снимок
	UpsertPayment(p, mustRecord(t, "2025-01", Payment{Amount: 20, Status: models.PaymentUnpaid}))

	require.Len(t, p.PaymentHistory, 2)
	jan, ok := FindRecord(p.PaymentHistory, "2025-01")
	require.True(t, ok)
	assert.Equal(t, models.PaymentUnpaid, jan.Status)
	assert.Nil(t, jan.PaymentDate)

	assert.Equal(t, models.PaymentUnpaid, p.Subscription.Status)
	assert.Nil(t, p.Subscription.LastPaymentDate)
	assert.Equal(t, 20.0, p.Subscription.Amount)
}

func TestUpsertPayment_MonthUniqueness(t *testing.T) {
	p := newPlayer(20)
	months := []string{"2025-01", "2025-02", "2025-01", "2025-03", "2025-02", "2025-01"}
	for i, m := range months {
		status := models.PaymentPaid
		if i%2 == 1 {
			status = models.PaymentUnpaid
		}
		UpsertPayment(p, mustRecord(t, m, Payment{Amount: float64(10 + i), Status: status}))
	}

	seen := map[string]int{}
	for _, rec := range p.PaymentHistory {
		seen[rec.Month]++
	}
	assert.Len(t, p.PaymentHistory, 3)
	for month, n := range seen {
		assert.Equal(t, 1, n, "month %s", month)
	}
	last, _ := FindRecord(p.PaymentHistory, "2025-01")
	assert.Equal(t, 15.0, last.Amount)
}

func TestUpsertPayment_CollapsesStoredDuplicates(t *testing.T) {
	p := newPlayer(20)
	p.PaymentHistory = []models.PaymentRecord{
		{Month: "2025-01", Amount: 20, Status: models.PaymentUnpaid},
		{Month: "2025-01", Amount: 25, Status: models.PaymentUnpaid},
	}

	UpsertPayment(p, mustRecord(t, "2025-01", Payment{Amount: 30, Status: models.PaymentPaid}))

	require.Len(t, p.PaymentHistory, 1)
	assert.Equal(t, 30.0, p.PaymentHistory[0].Amount)
}

func TestUpsertPayment_LegacyPlayerGetsHistory(t *testing.T) {
	p := newPlayer(20)
	p.PaymentHistory = nil

	UpsertPayment(p, mustRecord(t, "2025-04", Payment{Amount: 20, Status: models.PaymentPaid}))

	require.NotNil(t, p.PaymentHistory)
	assert.Len(t, p.PaymentHistory, 1)
}

func TestStatusForMonth(t *testing.T) {
	withHistory := newPlayer(20)
	withHistory.PaymentHistory = []models.PaymentRecord{
		{Month: "2025-01", Amount: 20, Status: models.PaymentPaid, PaymentDate: strPtr("2025-01-05")},
		{Month: "2025-03", Amount: 15, Status: models.PaymentUnpaid},
	}

	legacyPaid := newPlayer(30)
	legacyPaid.PaymentHistory = nil
	legacyPaid.Subscription.Status = models.PaymentPaid
	legacyPaid.Subscription.LastPaymentDate = strPtr("2024-11-20")

	emptyHistory := newPlayer(25)
	emptyHistory.Subscription.Status = models.PaymentPaid

	tests := []struct {
		name   string
		player *models.Player
		month  string
		want   models.MonthlyPaymentStatus
	}{
		{
			name:   "paid record",
			player: withHistory,
			month:  "2025-01",
			want:   models.MonthlyPaymentStatus{Paid: true, PaymentDate: strPtr("2025-01-05"), Amount: 20},
		},
		{
			name:   "unpaid record uses record amount",
			player: withHistory,
			month:  "2025-03",
			want:   models.MonthlyPaymentStatus{Paid: false, Amount: 15},
		},
		{
			name:   "no record for month is unpaid",
			player: withHistory,
			month:  "2025-02",
			want:   models.MonthlyPaymentStatus{Paid: false, Amount: 20},
		},
		{
			name:   "future month is unpaid",
			player: withHistory,
			month:  "2030-12",
			want:   models.MonthlyPaymentStatus{Paid: false, Amount: 20},
		},
		{
			name:   "malformed key never matches",
			player: withHistory,
			month:  "2025-1",
			want:   models.MonthlyPaymentStatus{Paid: false, Amount: 20},
		},
		{
			name:   "legacy player falls back to snapshot",
			player: legacyPaid,
			month:  "1999-01",
			want:   models.MonthlyPaymentStatus{Paid: true, PaymentDate: strPtr("2024-11-20"), Amount: 30},
		},
		{
			name:   "empty history is not legacy",
			player: emptyHistory,
			month:  "2025-01",
			want:   models.MonthlyPaymentStatus{Paid: false, Amount: 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForMonth(tt.player, tt.month))
		})
	}
}

func TestStatusForMonth_DoesNotAliasPlayerData(t *testing.T) {
	p := newPlayer(20)
	p.PaymentHistory = []models.PaymentRecord{{Month: "2025-01", Amount: 20, Status: models.PaymentPaid, PaymentDate: strPtr("2025-01-05")}}

	status := StatusForMonth(p, "2025-01")
	*status.PaymentDate = "changed"

	assert.Equal(t, "2025-01-05", *p.PaymentHistory[0].PaymentDate)
}

func TestNewRecord_Validation(t *testing.T) {
	tests := []struct {
		name    string
		month   string
		payment Payment
		wantErr error
	}{
		{"empty month", " ", Payment{Status: models.PaymentPaid}, ErrMonthRequired},
		{"bad status", "2025-01", Payment{Status: "partial"}, ErrInvalidStatus},
		{"empty status", "2025-01", Payment{}, ErrInvalidStatus},
		{"negative amount", "2025-01", Payment{Amount: -5, Status: models.PaymentPaid}, ErrNegativeAmount},
		{"bad date", "2025-01", Payment{Status: models.PaymentPaid, PaymentDate: strPtr("05/01/2025")}, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecord(tt.month, tt.payment)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	got, err := NormalizeDate(strPtr("2025-01-05T10:30:00Z"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", *got)

	got, err = NormalizeDate(strPtr(""))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = NormalizeDate(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMonthHelpers(t *testing.T) {
	assert.Equal(t, "مارس 2025", MonthName("2025-03"))
	assert.Equal(t, "ديسمبر 2024", MonthName("2024-12"))
	assert.Equal(t, "2025-13", MonthName("2025-13"))
	assert.Equal(t, "garbage", MonthName("garbage"))

	assert.True(t, IsMonthKey("2025-03"))
	assert.False(t, IsMonthKey("2025-3"))
	assert.False(t, IsMonthKey("2025-03-01"))
}

func TestAvailableMonths(t *testing.T) {
	now := time.Date(2025, time.January, 31, 12, 0, 0, 0, time.UTC)

	months := AvailableMonths(now)

	keys := make([]string, 0, len(months))
	for _, m := range months {
		keys = append(keys, m.Month)
	}
	assert.Equal(t, []string{"2024-10", "2024-11", "2024-12", "2025-01", "2025-02", "2025-03"}, keys)
	assert.True(t, months[3].IsCurrent)
	assert.Equal(t, "يناير 2025", months[3].Label)
}
