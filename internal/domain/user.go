package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"         json:"_id"`
	Email                string             `bson:"email"                 json:"email"`
	PasswordHash         string             `bson:"password,omitempty"    json:"-"`
	FirstName            string             `bson:"first_name"            json:"first_name"`
	LastName             string             `bson:"last_name"             json:"last_name"`
	Preferences          Preferences        `bson:"preferences"           json:"preferences"`
	NotificationsEnabled bool               `bson:"notifications_enabled" json:"notifications_enabled"`
	Provider             string             `bson:"provider,omitempty"    json:"provider,omitempty"` // "local" | "google"
	ExternalID           string             `bson:"external_id,omitempty" json:"-"`                  // Google sub
	CreatedAt            time.Time          `bson:"created_at"            json:"created_at"`
}

// Preferences is stored as a free-form document. Only "categories" and
// "countries" carry meaning for recommendations and notifications.
type Preferences map[string]any

func (p Preferences) Categories() []string { return p.stringList("categories") }
func (p Preferences) Countries() []string  { return p.stringList("countries") }

func (p Preferences) stringList(key string) []string {
	raw, ok := p[key]
	if !ok || raw == nil {
		return nil
	}
	var items []any
	switch v := raw.(type) {
	case []string:
		return compact(v)
	case []any:
		items = v
	case primitive.A:
		items = v
	case string:
		return compact([]string{v})
	default:
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return compact(out)
}

func compact(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
