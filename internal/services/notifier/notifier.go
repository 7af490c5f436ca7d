package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/dnlogistics/freightdesk/internal/broker/messages"
	"github.com/dnlogistics/freightdesk/internal/integrations/mailer"
	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	GetOrder(ctx context.Context, id uint64) (*models.Order, error)
}

// Claimer takes a short-lived lock per notification key so redeliveries and
// rapid flip-flops produce a single email.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type Notifier struct {
	repo   Repository
	sender mailer.Sender
	dedup  Claimer

	trackingBaseURL string
	dedupWindow     time.Duration
}

func New(repo Repository, sender mailer.Sender, dedup Claimer, trackingBaseURL string) *Notifier {
	return &Notifier{
		repo:            repo,
		sender:          sender,
		dedup:           dedup,
		trackingBaseURL: strings.TrimRight(trackingBaseURL, "/"),
		dedupWindow:     10 * time.Minute,
	}
}

func (n *Notifier) WithDedupWindow(d time.Duration) *Notifier {
	if d > 0 {
		n.dedupWindow = d
	}
	return n
}

type Result struct {
	Sent    bool
	Skipped bool
}

// StageLabel maps an order status to the customer-facing delivery stage.
// Unknown statuses fall back to the raw value.
func StageLabel(status string) string {
	switch status {
	case models.OrderStatusPending, models.OrderStatusConfirmed:
		return "en préparation"
	case models.OrderStatusInProgress:
		return "en cours de livraison"
	case models.OrderStatusCompleted:
		return "livrée"
	case models.OrderStatusCancelled:
		return "annulée"
	}
	return status
}

// Notify emails the order's client about a status change. Missing recipients
// and duplicate deliveries are skips, not errors: the message is consumed
// either way.
func (n *Notifier) Notify(ctx context.Context, msg messages.OrderStatusChanged) (Result, error) {
	o, err := n.repo.GetOrder(ctx, msg.OrderID)
	if errors.Is(err, models.ErrNotFound) {
		slog.Warn("notification for unknown order", "order_id", msg.OrderID)
		return Result{Skipped: true}, nil
	}
	if err != nil {
		return Result{}, errors.Wrap(err, "load order")
	}

	if strings.TrimSpace(o.ClientEmail) == "" {
		slog.Warn("order has no client email, skipping notification",
			"order_id", o.ID, "order_number", o.OrderNumber)
		return Result{Skipped: true}, nil
	}

	if n.dedup != nil {
		key := fmt.Sprintf("notify:%s:%d:%s", msg.Kind, msg.OrderID, msg.NewStatus)
		ok, err := n.dedup.Claim(ctx, key, n.dedupWindow)
		if err != nil {
			return Result{}, errors.Wrap(err, "dedup claim")
		}
		if !ok {
			return Result{Skipped: true}, nil
		}
	}

	m := n.compose(o, msg)
	if err := n.sender.Send(ctx, m); err != nil {
		return Result{}, errors.Wrap(err, "send mail")
	}
	return Result{Sent: true}, nil
}

func (n *Notifier) compose(o *models.Order, msg messages.OrderStatusChanged) mailer.Message {
	stage := StageLabel(msg.NewStatus)
	link := fmt.Sprintf("%s/track/%s", n.trackingBaseURL, o.OrderNumber)

	subject := fmt.Sprintf("Commande %s : %s", o.OrderNumber, stage)
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Bonjour %s,</p>", htmlEscape(o.ClientName))
	if msg.Kind == messages.KindContainerStatus && msg.ContainerCode != "" {
		fmt.Fprintf(&b, "<p>Le conteneur <b>%s</b> transportant votre commande <b>%s</b> est maintenant <b>%s</b>.</p>",
			htmlEscape(msg.ContainerCode), o.OrderNumber, htmlEscape(msg.ContainerStatus))
	} else {
		fmt.Fprintf(&b, "<p>Votre commande <b>%s</b> est %s.</p>", o.OrderNumber, stage)
	}
	fmt.Fprintf(&b, `<p>Suivi : <a href="%s">%s</a></p>`, link, link)
	b.WriteString("<p>DN Logistics</p>")

	return mailer.Message{
		To:      o.ClientEmail,
		Subject: subject,
		HTML:    b.String(),
	}
}

func htmlEscape(s string) string {
	return html.EscapeString(s)
}
