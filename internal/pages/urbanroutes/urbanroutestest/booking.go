// Package urbanroutestest provides a scripted booking page for tests that drive
// the urbanroutes page object without a browser.
package urbanroutestest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xkilldash9x/routeflow/internal/browser/fakebrowser"
	"github.com/xkilldash9x/routeflow/internal/locator"
	"github.com/xkilldash9x/routeflow/internal/pages/urbanroutes"
)

// CodeURL is the request URL the page reports the SMS code on.
const CodeURL = "http://localhost:8080/api/v1/number?number=%2B11231231212"

// Booking is a fake booking page whose controls react like the real one. The
// plus button increments the counter and the switch toggles its checkbox. Next
// publishes an SMS code, Link adds a card, the order button opens the car
// search modal. Navigating resets the form.
type Booking struct {
	*fakebrowser.Page

	Code string
	Els  map[string]*fakebrowser.Element
}

// NewBooking builds the page using the default selectors.
func NewBooking() *Booking {
	b := &Booking{Page: fakebrowser.NewPage(), Code: "4821", Els: make(map[string]*fakebrowser.Element)}
	for _, def := range urbanroutes.Definitions() {
		el := fakebrowser.NewElement()
		b.Els[def.Name] = el
		b.AddFor(def, el)
	}

	b.Els[urbanroutes.ComfortTariff].OnClick(func(e *fakebrowser.Element) { e.SetAttr("class", "tcard active") })

	b.Els[urbanroutes.IceCreamCounter].SetText("0")
	b.Els[urbanroutes.IceCreamPlus].OnClick(func(*fakebrowser.Element) {
		counter := b.Els[urbanroutes.IceCreamCounter]
		n, _ := strconv.Atoi(b.text(counter))
		counter.SetText(strconv.Itoa(n + 1))
	})

	b.Els[urbanroutes.BlanketSwitch].OnClick(func(*fakebrowser.Element) {
		cb := b.Els[urbanroutes.BlanketCheckbox]
		selected, _ := cb.Selected(context.Background())
		cb.SetSelected(!selected)
	})

	b.Els[urbanroutes.NextButton].OnClick(func(*fakebrowser.Element) {
		b.AddResponse(CodeURL, []byte(fmt.Sprintf(`{"code":"%s"}`, b.Code)))
	})

	b.Els[urbanroutes.LinkButton].OnClick(func(*fakebrowser.Element) {
		b.Els[urbanroutes.CardAdded].SetEnabled(true)
	})

	b.Els[urbanroutes.OrderButton].OnClick(func(*fakebrowser.Element) {
		b.Els[urbanroutes.OrderModal].SetDisplayed(true)
	})
	b.Els[urbanroutes.BlanketCheckbox].SetDisplayed(false)
	b.reset()
	b.OnNavigate(func(string) { b.reset() })
	return b
}

// Replace swaps the element behind name for el.
func (b *Booking) Replace(name string, el *fakebrowser.Element) {
	def := Locator(name)
	b.Remove(def.Selector())
	b.AddFor(def, el)
	b.Els[name] = el
}

// Drop removes name from the page entirely.
func (b *Booking) Drop(name string) {
	b.Remove(Locator(name).Selector())
	delete(b.Els, name)
}

// Locator returns the default definition of name.
func Locator(name string) locator.Locator {
	for _, def := range urbanroutes.Definitions() {
		if def.Name == name {
			return def
		}
	}
	panic(fmt.Sprintf("urbanroutestest: no element %q", name))
}

var inputs = []string{
	urbanroutes.FromField, urbanroutes.ToField, urbanroutes.PhoneInput, urbanroutes.CodeInput,
	urbanroutes.CardNumberInput, urbanroutes.CardCodeInput, urbanroutes.MessageInput,
}

// reset restores what a reload clears: typed input and the order form state.
func (b *Booking) reset() {
	for _, name := range inputs {
		if el, ok := b.Els[name]; ok {
			el.SetProp("value", "")
		}
	}
	if el, ok := b.Els[urbanroutes.ComfortTariff]; ok {
		el.SetAttr("class", "tcard")
	}
	if el, ok := b.Els[urbanroutes.BlanketCheckbox]; ok {
		el.SetSelected(false)
	}
	if el, ok := b.Els[urbanroutes.CardAdded]; ok {
		el.SetEnabled(false)
	}
	if el, ok := b.Els[urbanroutes.OrderModal]; ok {
		el.SetDisplayed(false)
	}
}

func (b *Booking) text(e *fakebrowser.Element) string {
	s, _ := e.Text(context.Background())
	return s
}
