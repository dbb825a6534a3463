package models

// PaymentStatus - статус оплаты за месяц или текущий статус подписки.
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentUnpaid PaymentStatus = "unpaid"
)

func (s PaymentStatus) IsValid() bool {
	return s == PaymentPaid || s == PaymentUnpaid
}

const (
	SubscriptionMonthly       = "monthly"
	DefaultSubscriptionAmount = 20.0
)

// Subscription - встроенный снимок текущего состояния подписки игрока.
type Subscription struct {
	Type            string        `json:"type"`
	Amount          float64       `json:"amount"`
	Status          PaymentStatus `json:"status"`
	LastPaymentDate *string       `json:"last_payment_date"`
	Notes           string        `json:"notes,omitempty"`
}

// DefaultSubscription - подписка, с которой создаётся игрок из заявки.
func DefaultSubscription() Subscription {
	return Subscription{
		Type:   SubscriptionMonthly,
		Amount: DefaultSubscriptionAmount,
		Status: PaymentUnpaid,
	}
}

// PaymentRecord - запись об оплате за один календарный месяц.
type PaymentRecord struct {
	Month       string        `json:"month"` // YYYY-MM
	Amount      float64       `json:"amount"`
	Status      PaymentStatus `json:"status"`
	PaymentDate *string       `json:"payment_date"` // YYYY-MM-DD
	Notes       string        `json:"notes,omitempty"`
}

// MonthlyPaymentStatus - вычисленный статус оплаты игрока за месяц.
type MonthlyPaymentStatus struct {
	Paid        bool    `json:"paid"`
	PaymentDate *string `json:"payment_date"`
	Amount      float64 `json:"amount"`
}

// PlayerSubscription - строка административного списка подписок.
type PlayerSubscription struct {
	PlayerID       int                   `json:"player_id"`
	PlayerName     string                `json:"player_name"`
	PlayerAge      int                   `json:"player_age"`
	PlayerPosition string                `json:"player_position"`
	IsActive       bool                  `json:"is_active"`
	Subscription   Subscription          `json:"subscription"`
	PaymentHistory []PaymentRecord       `json:"payment_history"`
	Month          string                `json:"month,omitempty"`
	MonthStatus    *MonthlyPaymentStatus `json:"month_status,omitempty"`
}

// SubscriptionReport - агрегированная статистика по активным игрокам за месяц.
type SubscriptionReport struct {
	Month        string  `json:"month"`
	MonthLabel   string  `json:"month_label"`
	PaidCount    int     `json:"paid_count"`
	UnpaidCount  int     `json:"unpaid_count"`
	PaidAmount   float64 `json:"paid_amount"`
	UnpaidAmount float64 `json:"unpaid_amount"`
	TotalAmount  float64 `json:"total_amount"`

	// CollectionPercent is nil when TotalAmount is zero.
	CollectionPercent *float64 `json:"collection_percent"`
	CollectionDisplay string   `json:"collection_display"`
}

// MonthOption - элемент списка месяцев для выбора в админке.
type MonthOption struct {
	Month     string `json:"month"`
	Label     string `json:"label"`
	IsCurrent bool   `json:"is_current"`
}
