package queue

import "time"

const (
	DefaultExchange = "tenders.events"

	KeyUserRegistered = "user.registered"
	KeyTendersScraped = "tenders.scraped"
)

type UserRegistered struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

// TendersScraped is emitted after a source run that stored at least one tender.
type TendersScraped struct {
	Source     string    `json:"source"`
	Country    string    `json:"country"`
	Inserted   int       `json:"inserted"`
	Updated    int       `json:"updated"`
	Categories []string  `json:"categories"`
	ScrapedAt  time.Time `json:"scraped_at"`
}
