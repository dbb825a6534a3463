package models

import "time"

// Settings - публичные настройки сайта академии.
// Учётные данные администратора хранятся отдельно и наружу не отдаются.
type Settings struct {
	AcademyName       string    `json:"academy_name"`
	Slogan            string    `json:"slogan"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email"`
	Address           string    `json:"address"`
	Facebook          string    `json:"facebook"`
	Instagram         string    `json:"instagram"`
	Twitter           string    `json:"twitter"`
	FacebookShareText string    `json:"facebook_share_text"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// AdminCredentials - учётная запись администратора из таблицы settings.
type AdminCredentials struct {
	Username     string `json:"-"`
	PasswordHash string `json:"-"`
}
