// Package urbanroutes is the page object of the ride booking page. It exposes
// the page as named operations built on step actions, so scenarios never see a
// selector.
package urbanroutes

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp/kb"

	"github.com/xkilldash9x/routeflow/internal/steps"
	"github.com/xkilldash9x/routeflow/internal/wait"
)

// Page drives the booking page.
type Page struct {
	a *steps.Actions
}

// New wraps a for the booking page. The registry behind a must hold
// every name of Names; NewRegistry and Validate check that.
func New(a *steps.Actions) *Page { return &Page{a: a} }

// Open loads the page at url.
func (p *Page) Open(ctx context.Context, url string) error { return p.a.Navigate(ctx, url) }

// SetFrom types the pickup address.
func (p *Page) SetFrom(ctx context.Context, addr string) error {
	return p.a.Fill(ctx, FromField, addr)
}

// SetTo types the drop-off address.
func (p *Page) SetTo(ctx context.Context, addr string) error {
	return p.a.Fill(ctx, ToField, addr)
}

// From reads the pickup address back.
func (p *Page) From(ctx context.Context) (string, error) { return p.a.ReadValue(ctx, FromField) }

// To reads the drop-off address back.
func (p *Page) To(ctx context.Context) (string, error) { return p.a.ReadValue(ctx, ToField) }

// OrderTaxi opens the tariff picker.
func (p *Page) OrderTaxi(ctx context.Context) error { return p.a.Click(ctx, OrderTaxiButton) }

// SelectComfort picks the Comfort tariff.
func (p *Page) SelectComfort(ctx context.Context) error { return p.a.Click(ctx, ComfortTariff) }

// ComfortSelected reports whether the Comfort card is the active tariff and enabled.
func (p *Page) ComfortSelected(ctx context.Context) (bool, error) {
	class, _, err := p.a.ReadAttribute(ctx, ComfortTariff, "class")
	if err != nil {
		return false, err
	}
	if !hasClass(class, "active") {
		return false, nil
	}
	return p.a.IsEnabled(ctx, ComfortTariff)
}

// FillPhone opens the phone form and types number.
func (p *Page) FillPhone(ctx context.Context, number string) error {
	if err := p.a.Click(ctx, PhoneField); err != nil {
		return err
	}
	if err := p.a.Fill(ctx, PhoneInput, number); err != nil {
		return err
	}
	return p.a.Click(ctx, NextButton)
}

// ConfirmCode enters the SMS code and confirms it.
func (p *Page) ConfirmCode(ctx context.Context, code string) error {
	if err := p.a.Fill(ctx, CodeInput, code); err != nil {
		return err
	}
	return p.a.Click(ctx, ConfirmButton)
}

// Phone reads the phone input back.
func (p *Page) Phone(ctx context.Context) (string, error) { return p.a.ReadValue(ctx, PhoneInput) }

// AddCard fills the card form and links the card. The Link button only
// enables once the code input loses focus.
func (p *Page) AddCard(ctx context.Context, number, code string) error {
	for _, click := range []string{PaymentMethod, AddCardButton} {
		if err := p.a.Click(ctx, click); err != nil {
			return err
		}
	}
	if err := p.a.Fill(ctx, CardNumberInput, number); err != nil {
		return err
	}
	if err := p.a.Fill(ctx, CardCodeInput, code); err != nil {
		return err
	}
	if err := p.a.PressKey(ctx, CardCodeInput, kb.Tab); err != nil {
		return err
	}
	return p.a.Click(ctx, LinkButton)
}

// AwaitCardAdded waits for at least one enabled payment card entry.
func (p *Page) AwaitCardAdded(ctx context.Context) error {
	_, err := p.a.AwaitCount(ctx, CardAdded, wait.ForClickable(), 1)
	return err
}

// ClosePayment closes the payment method modal.
func (p *Page) ClosePayment(ctx context.Context) error { return p.a.Click(ctx, PaymentClose) }

// WriteMessage types a comment for the driver.
func (p *Page) WriteMessage(ctx context.Context, msg string) error {
	return p.a.Fill(ctx, MessageInput, msg)
}

// Message reads the driver comment back.
func (p *Page) Message(ctx context.Context) (string, error) { return p.a.ReadValue(ctx, MessageInput) }

// ToggleBlanket flips the blanket and handkerchiefs switch.
func (p *Page) ToggleBlanket(ctx context.Context) error { return p.a.Click(ctx, BlanketSwitch) }

// BlanketSelected reports whether the hidden checkbox behind the switch is checked.
func (p *Page) BlanketSelected(ctx context.Context) (bool, error) {
	return p.a.IsSelected(ctx, BlanketCheckbox)
}

// AddIceCream increments the ice cream counter once.
func (p *Page) AddIceCream(ctx context.Context) error { return p.a.Click(ctx, IceCreamPlus) }

// IceCreamCount reads the ice cream counter.
func (p *Page) IceCreamCount(ctx context.Context) (int, error) {
	return p.a.ReadInt(ctx, IceCreamCounter)
}

// PlaceOrder submits the order.
func (p *Page) PlaceOrder(ctx context.Context) error { return p.a.Click(ctx, OrderButton) }

// AwaitOrderModal waits up to timeout for the car search modal.
func (p *Page) AwaitOrderModal(ctx context.Context, timeout time.Duration) error {
	return p.a.AwaitVisible(ctx, OrderModal, timeout)
}

// OrderModalDisplayed reports whether the car search modal is shown.
func (p *Page) OrderModalDisplayed(ctx context.Context) (bool, error) {
	return p.a.IsDisplayed(ctx, OrderModal)
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}
