package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ayamekni/AfriOffres/internal/domain"
	"github.com/ayamekni/AfriOffres/internal/helper"
	"github.com/ayamekni/AfriOffres/internal/mail"
	"github.com/ayamekni/AfriOffres/internal/metrics"
	"github.com/ayamekni/AfriOffres/internal/queue"
)

type UserSource interface {
	ListNotifiableUsers(ctx context.Context) ([]domain.User, error)
}

type Notifier struct {
	users UserSource
	mail  mail.Sender
	log   *zap.Logger
}

func New(users UserSource, sender mail.Sender, lg *zap.Logger) *Notifier {
	return &Notifier{users: users, mail: sender, log: lg}
}

// Handle consumes one tenders.scraped message. Undecodable messages are
// dropped; user lookup failures are returned so the broker redelivers.
func (n *Notifier) Handle(ctx context.Context, body []byte) error {
	var ev queue.TendersScraped
	if err := json.Unmarshal(body, &ev); err != nil {
		n.log.Warn("dropping malformed event", zap.Error(err))
		return nil
	}
	if ev.Inserted == 0 {
		return nil
	}

	users, err := n.users.ListNotifiableUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	sent := 0
	for _, u := range users {
		if !u.NotificationsEnabled || !Matches(u.Preferences, ev) {
			continue
		}
		subject, text := compose(u, ev)
		if err := n.mail.Send(ctx, u.Email, subject, text); err != nil {
			n.log.Warn("notification failed", zap.String("email_hash", helper.Hash8(u.Email)), zap.Error(err))
			continue
		}
		sent++
		metrics.NotificationsSent.Inc()
	}
	n.log.Info("tenders.scraped handled",
		zap.String("source", ev.Source), zap.Int("inserted", ev.Inserted), zap.Int("notified", sent))
	return nil
}

// Matches applies the recommendation rule to an event: each preference list
// that is set must contain the event's country or one of its categories.
func Matches(p domain.Preferences, ev queue.TendersScraped) bool {
	if countries := p.Countries(); len(countries) > 0 && !containsFold(countries, ev.Country) {
		return false
	}
	if cats := p.Categories(); len(cats) > 0 {
		for _, c := range ev.Categories {
			if containsFold(cats, c) {
				return true
			}
		}
		return false
	}
	return true
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func compose(u domain.User, ev queue.TendersScraped) (string, string) {
	name := u.FirstName
	if name == "" {
		name = "there"
	}
	subject := fmt.Sprintf("%d new tenders from %s", ev.Inserted, ev.Country)
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "%d new tenders were published in %s", ev.Inserted, ev.Country)
	if len(ev.Categories) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ev.Categories, ", "))
	}
	b.WriteString(".\nSign in to AfriOffres to see your recommendations.\n")
	return subject, b.String()
}
