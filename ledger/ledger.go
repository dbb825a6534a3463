// Package ledger содержит чистую логику помесячного учёта оплат игрока:
// upsert записи по ключу месяца, вычисление статуса за месяц и отчёт.
// Пакет не обращается к хранилищу; атомарность записи обеспечивает репозиторий.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/academy-system/models"
)

const dateLayout = "2006-01-02"

var (
	ErrMonthRequired  = errors.New("month is required")
	ErrInvalidStatus  = errors.New("status must be 'paid' or 'unpaid'")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrInvalidDate    = errors.New("payment date must be YYYY-MM-DD")
)

// Payment - данные для записи оплаты за месяц.
type Payment struct {
	Amount      float64
	Status      models.PaymentStatus
	PaymentDate *string
	Notes       string
}

// NewRecord проверяет входные данные и строит запись для месяца.
// Формат ключа месяца не проверяется: некорректный ключ просто никогда не совпадёт.
func NewRecord(month string, p Payment) (models.PaymentRecord, error) {
	if strings.TrimSpace(month) == "" {
		return models.PaymentRecord{}, ErrMonthRequired
	}
	if !p.Status.IsValid() {
		return models.PaymentRecord{}, fmt.Errorf("%w: got %q", ErrInvalidStatus, p.Status)
	}
	if p.Amount < 0 {
		return models.PaymentRecord{}, ErrNegativeAmount
	}

	date, err := NormalizeDate(p.PaymentDate)
	if err != nil {
		return models.PaymentRecord{}, err
	}

	return models.PaymentRecord{
		Month:       month,
		Amount:      p.Amount,
		Status:      p.Status,
		PaymentDate: date,
		Notes:       p.Notes,
	}, nil
}

// NormalizeDate приводит дату оплаты к виду YYYY-MM-DD.
// Принимает также RFC3339, пустая строка трактуется как отсутствие даты.
func NormalizeDate(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		out := t.Format(dateLayout)
		return &out, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		out := t.Format(dateLayout)
		return &out, nil
	}
	return nil, fmt.Errorf("%w: got %q", ErrInvalidDate, s)
}

// UpsertPayment записывает rec в историю игрока и синхронизирует снимок подписки.
// Существующая запись за тот же месяц заменяется на месте, иначе добавляется новая.
// Снимок (status, lastPaymentDate) всегда отражает последнюю записанную запись,
// даже если месяц не текущий. Сумма подписки не меняется.
func UpsertPayment(p *models.Player, rec models.PaymentRecord) {
	history := make([]models.PaymentRecord, 0, len(p.PaymentHistory)+1)
	replaced := false
	for _, existing := range p.PaymentHistory {
		if existing.Month != rec.Month {
			history = append(history, existing)
			continue
		}
		// дубликаты, если они попали в хранилище извне, схлопываются в одну запись
		if !replaced {
			history = append(history, rec)
			replaced = true
		}
	}
	if !replaced {
		history = append(history, rec)
	}

	p.PaymentHistory = history
	p.Subscription.Status = rec.Status
	p.Subscription.LastPaymentDate = copyString(rec.PaymentDate)
}

// StatusForMonth вычисляет статус оплаты игрока за месяц без изменения данных.
//
// Игрок без истории (nil) - это запись, созданная до помесячного учёта:
// для любого месяца возвращается текущий снимок подписки.
// При наличии истории отсутствие записи за месяц означает "не оплачено".
func StatusForMonth(p *models.Player, month string) models.MonthlyPaymentStatus {
	if p.PaymentHistory == nil {
		return models.MonthlyPaymentStatus{
			Paid:        p.Subscription.Status == models.PaymentPaid,
			PaymentDate: copyString(p.Subscription.LastPaymentDate),
			Amount:      p.Subscription.Amount,
		}
	}

	if rec, ok := FindRecord(p.PaymentHistory, month); ok {
		return models.MonthlyPaymentStatus{
			Paid:        rec.Status == models.PaymentPaid,
			PaymentDate: copyString(rec.PaymentDate),
			Amount:      rec.Amount,
		}
	}

	return models.MonthlyPaymentStatus{
		Paid:        false,
		PaymentDate: nil,
		Amount:      p.Subscription.Amount,
	}
}

func FindRecord(history []models.PaymentRecord, month string) (models.PaymentRecord, bool) {
	for _, rec := range history {
		if rec.Month == month {
			return rec, true
		}
	}
	return models.PaymentRecord{}, false
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
