package push

import (
	"errors"
	"log/slog"

	"github.com/duet-app/duet/internal/store"
)

// Notifier fans a payload out to all of a profile's registered devices.
// Unlike a polling scheduler, partner activity is the only notification
// source here, so sends are event-driven from the handlers.
type Notifier struct {
	service *Service
	subs    *store.PushStore
	logger  *slog.Logger
}

func NewNotifier(svc *Service, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{service: svc, subs: subs, logger: logger}
}

// NotifyProfile sends the payload to every device subscribed by the profile.
// Expired subscriptions are pruned; other failures are logged and skipped.
func (n *Notifier) NotifyProfile(profileID int64, payload Payload) {
	subs, err := n.subs.ListByProfile(profileID)
	if err != nil {
		n.logger.Error("list subscriptions", "profile_id", profileID, "error", err)
		return
	}

	for i := range subs {
		if err := n.service.Send(&subs[i], payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if derr := n.subs.DeleteByEndpoint(subs[i].Endpoint); derr != nil {
					n.logger.Error("prune expired subscription", "error", derr)
				}
				continue
			}
			n.logger.Warn("send push", "profile_id", profileID, "error", err)
		}
	}
}
