// internal/notification/dispatcher.go
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Dispatcher schedules notices without blocking the caller and never
// reports failure back to it.
type Dispatcher interface {
	Invitation(ctx context.Context, n InvitationNotice)
	CollaborationChange(ctx context.Context, n ChangeNotice)
}

const deliveryTimeout = 30 * time.Second

// AsyncDispatcher delivers each notice on its own goroutine.
type AsyncDispatcher struct {
	sender Sender
	wg     sync.WaitGroup
}

func NewAsyncDispatcher(sender Sender) *AsyncDispatcher {
	return &AsyncDispatcher{sender: sender}
}

func (d *AsyncDispatcher) Invitation(ctx context.Context, n InvitationNotice) {
	d.run(ctx, "invitation", n.To, func(ctx context.Context) error {
		return d.sender.DeliverInvitation(ctx, n)
	})
}

func (d *AsyncDispatcher) CollaborationChange(ctx context.Context, n ChangeNotice) {
	d.run(ctx, "collaboration_change", n.To, func(ctx context.Context) error {
		return d.sender.DeliverCollaborationChange(ctx, n)
	})
}

// Wait blocks until every dispatched notice has been attempted.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

func (d *AsyncDispatcher) run(ctx context.Context, kind, to string, deliver func(context.Context) error) {
	// the request context ends with the response
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		defer cancel()

		log := customLog.WithFields(logrus.Fields{"kind": kind, "to": to})
		if err := deliver(ctx); err != nil {
			log.WithError(err).Warn("Notification not delivered")
			return
		}
		log.Info("Notification delivered")
	}()
}

// NopDispatcher drops every notice.
type NopDispatcher struct{}

func (NopDispatcher) Invitation(context.Context, InvitationNotice)     {}
func (NopDispatcher) CollaborationChange(context.Context, ChangeNotice) {}
