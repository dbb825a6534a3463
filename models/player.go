package models

import "time"

// DefaultPosition используется для игроков, созданных из одобренной заявки.
const DefaultPosition = "غير محدد"

// Player представляет воспитанника академии.
type Player struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Position     string    `json:"position"`
	Bio          string    `json:"bio"`
	Achievements []string  `json:"achievements"`
	Images       []string  `json:"images"`
	Videos       []string  `json:"videos"`
	IsFeatured   bool      `json:"is_featured"`
	IsActive     bool      `json:"is_active"`
	JoinDate     time.Time `json:"join_date"`

	// Subscription is a cache of the last written payment record, not the source of truth.
	Subscription Subscription `json:"subscription"`

	// PaymentHistory == nil means the player predates per-month records.
	PaymentHistory []PaymentRecord `json:"payment_history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicPlayer - проекция игрока для публичного сайта, без финансовых данных.
type PublicPlayer struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Position     string    `json:"position"`
	Bio          string    `json:"bio"`
	Achievements []string  `json:"achievements"`
	Images       []string  `json:"images"`
	Videos       []string  `json:"videos"`
	IsFeatured   bool      `json:"is_featured"`
	JoinDate     time.Time `json:"join_date"`
}

func (p *Player) Public() PublicPlayer {
	return PublicPlayer{
		ID:           p.ID,
		Name:         p.Name,
		Age:          p.Age,
		Position:     p.Position,
		Bio:          p.Bio,
		Achievements: nonNil(p.Achievements),
		Images:       nonNil(p.Images),
		Videos:       nonNil(p.Videos),
		IsFeatured:   p.IsFeatured,
		JoinDate:     p.JoinDate,
	}
}

// PlayerPatch описывает частичное обновление игрока.
// nil означает "поле не передано"; указатель на пустой слайс - явная очистка списка.
type PlayerPatch struct {
	Name         *string
	Age          *int
	Position     *string
	Bio          *string
	Achievements *[]string
	Images       *[]string
	Videos       *[]string
	IsFeatured   *bool
	IsActive     *bool
	JoinDate     *time.Time
}

func (p PlayerPatch) IsEmpty() bool {
	return p.Name == nil && p.Age == nil && p.Position == nil && p.Bio == nil &&
		p.Achievements == nil && p.Images == nil && p.Videos == nil &&
		p.IsFeatured == nil && p.IsActive == nil && p.JoinDate == nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
