package models

type DashboardStats struct {
	PlayersTotal         int                `json:"players_total"`
	ActivePlayers        int                `json:"active_players"`
	FeaturedPlayers      int                `json:"featured_players"`
	CoachesTotal         int                `json:"coaches_total"`
	NewsTotal            int                `json:"news_total"`
	PendingRegistrations int                `json:"pending_registrations"`
	CurrentMonth         SubscriptionReport `json:"current_month"`
}
