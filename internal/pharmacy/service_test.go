package pharmacy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeSender struct {
	sent []string // "to: body"
	err  error
}

func (f *fakeSender) SendText(ctx context.Context, to, body string) error {
	f.sent = append(f.sent, to+": "+body)
	return f.err
}

func (f *fakeSender) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) Reply(ctx context.Context, userMessage string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newTestBot(gen ReplyGenerator) (*Bot, *MemoryOrderRepo, *fakeSender) {
	orders := NewMemoryOrderRepo()
	sender := &fakeSender{}
	bot := NewBot(orders, NewSessionStore(30*time.Minute), sender, gen)
	bot.clock = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return bot, orders, sender
}

func say(t *testing.T, bot *Bot, from, text string) {
	t.Helper()
	if err := bot.HandleMessage(context.Background(), from, text); err != nil {
		t.Fatalf("HandleMessage(%q): %v", text, err)
	}
}

func TestBot_FullOrderFlow(t *testing.T) {
	bot, orders, sender := newTestBot(nil)
	const phone = "15550001111"

	say(t, bot, phone, "hi")
	if !strings.Contains(sender.last(), "Reply 1 to order") {
		t.Fatalf("expected menu, got %q", sender.last())
	}

	say(t, bot, phone, "1")
	if !strings.Contains(sender.last(), "done") {
		t.Fatalf("expected collection prompt, got %q", sender.last())
	}

	say(t, bot, phone, "Paracetamol x2")
	say(t, bot, phone, "ibuprofen")
	say(t, bot, phone, "done")
	if !strings.Contains(sender.last(), "paracetamol x2") || !strings.Contains(sender.last(), "ibuprofen x1") {
		t.Fatalf("expected cart summary, got %q", sender.last())
	}

	say(t, bot, phone, "yes")
	if !strings.Contains(sender.last(), "Order placed") {
		t.Fatalf("expected confirmation, got %q", sender.last())
	}

	all := orders.Orders()
	if len(all) != 1 {
		t.Fatalf("expected 1 order, got %d", len(all))
	}
	o := all[0]
	if o.PhoneNumber != phone || o.Status != OrderStatusPending {
		t.Fatalf("unexpected order: %+v", o)
	}
	if len(o.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(o.Items))
	}
	for _, it := range o.Items {
		if it.OrderID != o.ID {
			t.Fatalf("item not linked to order: %+v", it)
		}
	}

	// Session is gone; the next message starts over at the menu.
	say(t, bot, phone, "hello again")
	if !strings.Contains(sender.last(), "Reply 1 to order") {
		t.Fatalf("expected fresh menu after order, got %q", sender.last())
	}
}

func TestBot_DecliningConfirmDiscardsCart(t *testing.T) {
	bot, orders, sender := newTestBot(nil)
	const phone = "15550002222"

	say(t, bot, phone, "hi")
	say(t, bot, phone, "1")
	say(t, bot, phone, "aspirin x3")
	say(t, bot, phone, "done")
	say(t, bot, phone, "no")

	if !strings.Contains(sender.last(), "cancelled") {
		t.Fatalf("expected cancellation, got %q", sender.last())
	}
	if len(orders.Orders()) != 0 {
		t.Fatalf("declined order must not be stored")
	}
}

func TestBot_DoneWithEmptyCartReprompts(t *testing.T) {
	bot, _, sender := newTestBot(nil)
	const phone = "15550003333"

	say(t, bot, phone, "hi")
	say(t, bot, phone, "1")
	say(t, bot, phone, "done")
	if !strings.Contains(sender.last(), "cart is empty") {
		t.Fatalf("expected empty-cart prompt, got %q", sender.last())
	}

	// Still collecting: an item can be added afterwards.
	say(t, bot, phone, "vitamin c")
	if !strings.Contains(sender.last(), "Added vitamin c x1") {
		t.Fatalf("expected item ack, got %q", sender.last())
	}
}

func TestBot_MenuQuestionUsesGenerator(t *testing.T) {
	gen := &fakeGenerator{reply: "We're open until 8pm."}
	bot, _, sender := newTestBot(gen)
	const phone = "15550004444"

	say(t, bot, phone, "hi")
	say(t, bot, phone, "what are your opening hours?")

	if gen.calls != 1 {
		t.Fatalf("expected generator to be called once, got %d", gen.calls)
	}
	if sender.last() != phone+": We're open until 8pm." {
		t.Fatalf("expected generated reply, got %q", sender.last())
	}
}

func TestBot_GeneratorFailureFallsBackToMenu(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	bot, _, sender := newTestBot(gen)
	const phone = "15550005555"

	say(t, bot, phone, "hi")
	say(t, bot, phone, "random question")
	if !strings.Contains(sender.last(), "Reply 1 to order") {
		t.Fatalf("expected menu fallback, got %q", sender.last())
	}
}

func TestBot_IdleSessionExpires(t *testing.T) {
	orders := NewMemoryOrderRepo()
	sender := &fakeSender{}
	bot := NewBot(orders, NewSessionStore(time.Minute), sender, nil)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	bot.clock = func() time.Time { return now }

	const phone = "15550006666"
	say(t, bot, phone, "hi")
	say(t, bot, phone, "1")

	now = now.Add(5 * time.Minute)
	say(t, bot, phone, "paracetamol")
	if !strings.Contains(sender.last(), "Reply 1 to order") {
		t.Fatalf("expired session should restart at the menu, got %q", sender.last())
	}
}

func TestParseItem(t *testing.T) {
	cases := []struct {
		in     string
		name   string
		qty    int
		wantOK bool
	}{
		{"paracetamol", "paracetamol", 1, true},
		{"Paracetamol x2", "paracetamol", 2, true},
		{"cough syrup 3", "cough syrup", 3, true},
		{"aspirin x0", "", 0, false},
		{"   ", "", 0, false},
	}
	for _, tc := range cases {
		it, ok := parseItem(tc.in)
		if ok != tc.wantOK {
			t.Fatalf("parseItem(%q) ok=%v, want %v", tc.in, ok, tc.wantOK)
		}
		if !ok {
			continue
		}
		if it.Name != tc.name || it.Quantity != tc.qty {
			t.Fatalf("parseItem(%q) = %+v", tc.in, it)
		}
	}
}
