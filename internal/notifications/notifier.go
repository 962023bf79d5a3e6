package notifications

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"backlog/internal/middleware"
	"backlog/internal/models"
	"backlog/internal/observability"
)

const deliveryTimeout = 15 * time.Second

// Notifier implements the lifecycle event sink: new requests are mailed to
// the admin, decisions are mailed back to the requester, and every event is
// published on Redis. Delivery runs on its own goroutine per event so the
// request path never waits on SMTP or Redis.
type Notifier struct {
	mailer     Mailer
	publisher  *Publisher
	adminEmail string
}

// NewNotifier wires a notifier. mailer and publisher may each be nil to
// disable that channel.
func NewNotifier(mailer Mailer, publisher *Publisher, adminEmail string) *Notifier {
	return &Notifier{mailer: mailer, publisher: publisher, adminEmail: adminEmail}
}

// RequestCreated notifies the admin about a new submission.
func (n *Notifier) RequestCreated(req *models.GameRequest, requester models.RequesterInfo) {
	snapshot := *req
	n.dispatch(func(ctx context.Context) {
		n.publish(ctx, Event{
			Type:      EventTypeRequestCreated,
			Request:   &snapshot,
			Requester: requester,
			At:        time.Now().UTC(),
		})

		if n.mailer == nil || n.adminEmail == "" {
			return
		}
		subject := fmt.Sprintf("New game request: %s", snapshot.GameName)
		if err := n.mailer.Send(ctx, n.adminEmail, subject, newRequestBody(&snapshot, requester)); err != nil {
			observability.NotificationFailures.WithLabelValues("email").Inc()
			middleware.Logger.Error("Failed to send new-request email",
				"request_id", snapshot.ID, "error", err)
		}
	})
}

// RequestStatusChanged notifies the requester about a review decision.
func (n *Notifier) RequestStatusChanged(req *models.GameRequest, requester models.RequesterInfo) {
	snapshot := *req
	n.dispatch(func(ctx context.Context) {
		n.publish(ctx, Event{
			Type:      EventTypeRequestStatusChanged,
			Request:   &snapshot,
			Requester: requester,
			At:        time.Now().UTC(),
		})

		if n.mailer == nil || requester.Email == "" {
			return
		}
		subject := fmt.Sprintf("Your request for %s was %s", snapshot.GameName, snapshot.Status)
		if err := n.mailer.Send(ctx, requester.Email, subject, statusChangeBody(&snapshot)); err != nil {
			observability.NotificationFailures.WithLabelValues("email").Inc()
			middleware.Logger.Error("Failed to send status-change email",
				"request_id", snapshot.ID, "error", err)
		}
	})
}

func (n *Notifier) publish(ctx context.Context, event Event) {
	if err := n.publisher.Publish(ctx, event); err != nil {
		observability.NotificationFailures.WithLabelValues("redis").Inc()
		middleware.Logger.Error("Failed to publish request event",
			"type", event.Type, "error", err)
	}
}

func (n *Notifier) dispatch(fn func(ctx context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				middleware.Logger.Error("Notification delivery panicked", "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func newRequestBody(req *models.GameRequest, requester models.RequesterInfo) string {
	var b strings.Builder
	b.WriteString("<h2>New game request</h2>")
	fmt.Fprintf(&b, "<p><strong>%s</strong> requested <strong>%s</strong> for <strong>%s</strong>.</p>",
		html.EscapeString(requester.DisplayName),
		html.EscapeString(req.GameName),
		html.EscapeString(req.PlatformName))
	if req.GameCoverURL != nil {
		fmt.Fprintf(&b, `<p><img src="%s" alt="cover" /></p>`, html.EscapeString(*req.GameCoverURL))
	}
	fmt.Fprintf(&b, "<p>Request #%d, submitted %s.</p>", req.ID, req.CreatedAt.UTC().Format(time.RFC1123))
	return b.String()
}

func statusChangeBody(req *models.GameRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Your request was %s</h2>", html.EscapeString(string(req.Status)))
	fmt.Fprintf(&b, "<p>Your request for <strong>%s</strong> on <strong>%s</strong> is now <strong>%s</strong>.</p>",
		html.EscapeString(req.GameName),
		html.EscapeString(req.PlatformName),
		html.EscapeString(string(req.Status)))
	if req.AdminNotes != nil && *req.AdminNotes != "" {
		fmt.Fprintf(&b, "<p>Note from the admin: %s</p>", html.EscapeString(*req.AdminNotes))
	}
	return b.String()
}
