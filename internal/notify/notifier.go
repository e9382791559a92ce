// Package notify e-mails hosts when one of their visitors checks in.
package notify

import (
	"context"
	"fmt"

	"github.com/diagnosis/visitor-register/internal/domain"
	"github.com/diagnosis/visitor-register/internal/platform/mailer"
	"github.com/diagnosis/visitor-register/pkg/events"
	"github.com/diagnosis/visitor-register/pkg/logger"
)

// HostLookup finds the host a visit is linked to.
type HostLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

type Notifier struct {
	subscriber events.Subscriber
	hosts      HostLookup
	mailer     mailer.Service
	queue      string
}

func New(subscriber events.Subscriber, hosts HostLookup, m mailer.Service, queue string) *Notifier {
	return &Notifier{
		subscriber: subscriber,
		hosts:      hosts,
		mailer:     m,
		queue:      queue,
	}
}

// Run subscribes to check-ins and blocks until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	sub, err := n.subscriber.QueueSubscribe(events.VisitorCheckedIn, n.queue, func(msg *events.Message) {
		if err := n.handle(context.WithoutCancel(ctx), msg); err != nil {
			logger.Warn("Host notification failed", "error", err, "event_id", msg.ID)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", events.VisitorCheckedIn, err)
	}
	logger.Info("Host notifier started", "subject", events.VisitorCheckedIn, "queue", n.queue)

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		logger.Warn("Failed to unsubscribe host notifier", "error", err)
	}
	return nil
}

func (n *Notifier) handle(ctx context.Context, msg *events.Message) error {
	var evt events.VisitorCheckedInEvent
	if err := msg.Decode(&evt); err != nil {
		return err
	}
	if evt.HostID == nil || *evt.HostID == "" {
		return nil
	}

	host, err := n.hosts.FindByID(ctx, *evt.HostID)
	if err != nil {
		return fmt.Errorf("find host %s: %w", *evt.HostID, err)
	}
	if host == nil || host.Email == "" {
		logger.Debug("Host has no e-mail, skipping notification", "host_id", *evt.HostID)
		return nil
	}

	return n.mailer.SendHostArrival(host.Email, host.TeamLeaderName, mailer.HostArrival{
		VisitorName:    evt.Name,
		Organisation:   evt.Organisation,
		PurposeOfVisit: evt.PurposeOfVisit,
		CheckInTime:    evt.CheckInTime,
	})
}
