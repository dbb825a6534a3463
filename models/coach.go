package models

import "time"

type Coach struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Title          string    `json:"title"`
	Bio            string    `json:"bio"`
	Image          string    `json:"image"`
	Experience     string    `json:"experience"`
	Certifications []string  `json:"certifications"`
	IsHeadCoach    bool      `json:"is_head_coach"`
	OrderIndex     int       `json:"order_index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
