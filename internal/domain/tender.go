package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultStatus   = "Open"
	DefaultCurrency = "USD"
)

// Tender is a procurement opportunity as stored in the tenders collection.
// (Title, Organization) identifies a tender across scraper runs.
type Tender struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"            json:"_id"`
	Title         string             `bson:"title"                    json:"title"`
	Description   string             `bson:"description"              json:"description"`
	Organization  string             `bson:"organization"             json:"organization"`
	Country       string             `bson:"country,omitempty"        json:"country,omitempty"`
	Category      string             `bson:"category,omitempty"       json:"category,omitempty"`
	Status        string             `bson:"status"                   json:"status"`
	Budget        *string            `bson:"budget,omitempty"         json:"budget"`
	Currency      string             `bson:"currency"                 json:"currency"`
	Requirements  []string           `bson:"requirements"             json:"requirements"`
	ContactEmail  string             `bson:"contact_email,omitempty"  json:"contact_email,omitempty"`
	ContactPhone  string             `bson:"contact_phone,omitempty"  json:"contact_phone,omitempty"`
	Website       string             `bson:"website,omitempty"        json:"website,omitempty"`
	Deadline      *time.Time         `bson:"deadline,omitempty"       json:"deadline,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"               json:"created_at"`
	SourceCountry string             `bson:"source_country,omitempty" json:"source_country,omitempty"`
	ScrapedAt     *time.Time         `bson:"scraped_at,omitempty"     json:"scraped_at,omitempty"`
}

// TenderFilter narrows tender listings. Empty fields are ignored.
type TenderFilter struct {
	Search   string
	Country  string
	Category string
	Status   string
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Skip() int64 { return int64((p.Number - 1) * p.Size) }

// Pages is ceil(total/size).
func (p Page) Pages(total int64) int64 {
	if p.Size <= 0 {
		return 0
	}
	return (total + int64(p.Size) - 1) / int64(p.Size)
}
