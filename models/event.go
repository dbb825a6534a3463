package models

// LedgerEvent публикуется в realtime-хаб после записи оплаты.
type LedgerEvent struct {
	PlayerID   int            `json:"player_id"`
	PlayerName string         `json:"player_name"`
	Record     *PaymentRecord `json:"record,omitempty"`
	Snapshot   Subscription   `json:"subscription"`
}
