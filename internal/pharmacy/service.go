package pharmacy

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"voiceagent-platform/pkg/logger"

	"github.com/google/uuid"
)

const (
	menuText = "Welcome to the pharmacy!\n" +
		"Reply 1 to order medicines.\n" +
		"Or just ask a question and we'll try to help."
	collectPrompt = "Send each item as its own message, e.g. \"paracetamol x2\".\n" +
		"Reply \"done\" when finished or \"cancel\" to stop."
	emptyCartText = "Your cart is empty. Add at least one item before confirming, or reply \"cancel\"."
	cancelledText = "Order cancelled. Reply anytime to start over."
	confirmHint   = "Reply \"yes\" to confirm or \"no\" to cancel."
)

// Bot drives the ordering conversation. One instance serves all
// customers; per-customer state lives in the session store.
type Bot struct {
	orders   OrderRepository
	sessions *SessionStore
	sender   Sender

	// gen is optional. Without it, off-menu messages get the menu again.
	gen ReplyGenerator

	clock func() time.Time
}

func NewBot(orders OrderRepository, sessions *SessionStore, sender Sender, gen ReplyGenerator) *Bot {
	return &Bot{
		orders:   orders,
		sessions: sessions,
		sender:   sender,
		gen:      gen,
		clock:    time.Now,
	}
}

// HandleMessage advances the customer's session with one inbound text
// and sends the reply. Errors are delivery or persistence failures;
// unparseable input is handled conversationally, not as an error.
func (b *Bot) HandleMessage(ctx context.Context, from, text string) error {
	if from == "" {
		return nil
	}
	now := b.clock().UTC()
	input := strings.ToLower(strings.TrimSpace(text))

	sess, ok := b.sessions.Get(from, now)
	if !ok {
		b.sessions.Put(Session{PhoneNumber: from, State: StateMenu, UpdatedAt: now})
		return b.sender.SendText(ctx, from, menuText)
	}
	sess.UpdatedAt = now

	switch sess.State {
	case StateMenu:
		return b.handleMenu(ctx, sess, input, text)
	case StateCollecting:
		return b.handleCollecting(ctx, sess, input, text)
	case StateConfirm:
		return b.handleConfirm(ctx, sess, input)
	default:
		b.sessions.Put(Session{PhoneNumber: from, State: StateMenu, UpdatedAt: now})
		return b.sender.SendText(ctx, from, menuText)
	}
}

func (b *Bot) handleMenu(ctx context.Context, sess Session, input, original string) error {
	if input == "1" || input == "order" {
		sess.State = StateCollecting
		sess.Items = nil
		b.sessions.Put(sess)
		return b.sender.SendText(ctx, sess.PhoneNumber, collectPrompt)
	}

	b.sessions.Put(sess)
	reply := menuText
	if b.gen != nil {
		if generated, err := b.gen.Reply(ctx, original); err == nil {
			reply = generated
		} else {
			logger.From(ctx).Warn("pharmacy reply generation failed", "err", err)
		}
	}
	return b.sender.SendText(ctx, sess.PhoneNumber, reply)
}

func (b *Bot) handleCollecting(ctx context.Context, sess Session, input, original string) error {
	switch input {
	case "cancel":
		b.sessions.Delete(sess.PhoneNumber)
		return b.sender.SendText(ctx, sess.PhoneNumber, cancelledText)
	case "done":
		if len(sess.Items) == 0 {
			b.sessions.Put(sess)
			return b.sender.SendText(ctx, sess.PhoneNumber, emptyCartText)
		}
		sess.State = StateConfirm
		b.sessions.Put(sess)
		return b.sender.SendText(ctx, sess.PhoneNumber, cartSummary(sess.Items)+"\n"+confirmHint)
	}

	item, ok := parseItem(original)
	if !ok {
		b.sessions.Put(sess)
		return b.sender.SendText(ctx, sess.PhoneNumber, "Couldn't read that item. "+collectPrompt)
	}
	sess.Items = append(sess.Items, item)
	b.sessions.Put(sess)
	return b.sender.SendText(ctx, sess.PhoneNumber,
		fmt.Sprintf("Added %s x%d. Anything else? Reply \"done\" when finished.", item.Name, item.Quantity))
}

func (b *Bot) handleConfirm(ctx context.Context, sess Session, input string) error {
	switch input {
	case "yes", "confirm", "y":
		now := b.clock().UTC()
		order := Order{
			ID:          uuid.NewString(),
			PhoneNumber: sess.PhoneNumber,
			Status:      OrderStatusPending,
			Items:       sess.Items,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		if err := b.orders.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("pharmacy: store order: %w", err)
		}
		b.sessions.Delete(sess.PhoneNumber)
		return b.sender.SendText(ctx, sess.PhoneNumber,
			fmt.Sprintf("Order placed! Your reference is %s. We'll message you when it's ready.", order.ID))
	case "no", "cancel", "n":
		b.sessions.Delete(sess.PhoneNumber)
		return b.sender.SendText(ctx, sess.PhoneNumber, cancelledText)
	default:
		b.sessions.Put(sess)
		return b.sender.SendText(ctx, sess.PhoneNumber, confirmHint)
	}
}

func cartSummary(items []OrderItem) string {
	var sb strings.Builder
	sb.WriteString("Your order:\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "- %s x%d\n", it.Name, it.Quantity)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// parseItem reads "name", "name x2" or "name 2". Quantity defaults to 1.
func parseItem(text string) (OrderItem, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return OrderItem{}, false
	}

	qty := 1
	last := fields[len(fields)-1]
	if n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(last), "x")); err == nil && len(fields) > 1 {
		if n <= 0 {
			return OrderItem{}, false
		}
		qty = n
		fields = fields[:len(fields)-1]
	}

	name := strings.ToLower(strings.Join(fields, " "))
	if name == "" {
		return OrderItem{}, false
	}
	return OrderItem{Name: name, Quantity: qty}, true
}
