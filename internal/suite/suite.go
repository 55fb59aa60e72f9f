// Package suite defines the ride booking scenarios.
package suite

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/pages/urbanroutes"
	"github.com/xkilldash9x/routeflow/internal/scenario"
	"github.com/xkilldash9x/routeflow/internal/smscode"
)

// Scenario names.
const (
	SetRoute                 = "set_route"
	SelectComfortTariff      = "select_comfort_tariff"
	FillPhoneNumber          = "fill_phone_number"
	AddCreditCard            = "add_credit_card"
	WriteMessage             = "write_message"
	RequestBlanketAndScarves = "request_blanket_and_scarves"
	RequestIceCream          = "request_icecream"
	SearchTaxi               = "search_taxi"
)

// Deps is what the scenarios need besides the session.
type Deps struct {
	Fixtures config.FixturesConfig
	Codes    *smscode.Retriever
	// ModalTimeout bounds the wait for the car search modal.
	ModalTimeout time.Duration
}

type builder struct {
	Deps
}

// New returns the suite in run order.
func New(d Deps) []scenario.Scenario {
	b := builder{d}
	return []scenario.Scenario{
		{
			Name:         SetRoute,
			Description:  "Set pickup and drop-off addresses and read them back.",
			Precondition: b.route,
		},
		{
			Name:         SelectComfortTariff,
			Description:  "Choose the Comfort tariff.",
			Precondition: b.route,
			Steps:        []scenario.Step{b.orderTaxi(), b.comfort()},
			Assert: page(func(ctx context.Context, p *urbanroutes.Page) error {
				ok, err := p.ComfortSelected(ctx)
				if err != nil {
					return err
				}
				return scenario.Assertf(ok, "comfort tariff card is not the active tariff")
			}),
		},
		{
			Name:         FillPhoneNumber,
			Description:  "Enter the phone number and confirm it with the SMS code.",
			Precondition: b.route,
			Steps: []scenario.Step{
				b.orderTaxi(),
				{Name: "fill_phone", Run: page(func(ctx context.Context, p *urbanroutes.Page) error {
					return p.FillPhone(ctx, b.Fixtures.PhoneNumber)
				})},
				{Name: "confirm_code", Run: func(ctx context.Context, env *scenario.Env) error {
					code, err := b.Codes.Retrieve(ctx, env.Session)
					if err != nil {
						return err
					}
					return urbanroutes.New(env.Actions).ConfirmCode(ctx, code)
				}},
			},
			Assert: page(func(ctx context.Context, p *urbanroutes.Page) error {
				got, err := p.Phone(ctx)
				if err != nil {
					return err
				}
				return scenario.Assertf(got == b.Fixtures.PhoneNumber, "phone reads %q, want %q", got, b.Fixtures.PhoneNumber)
			}),
		},
		{
			Name:         AddCreditCard,
			Description:  "Link a payment card.",
			Precondition: b.route,
			Steps: []scenario.Step{
				b.orderTaxi(),
				{Name: "add_card", Run: page(func(ctx context.Context, p *urbanroutes.Page) error {
					return p.AddCard(ctx, b.Fixtures.CardNumber, b.Fixtures.CardCode)
				})},
				{Name: "await_card", Run: page(func(ctx context.Context, p *urbanroutes.Page) error {
					return p.AwaitCardAdded(ctx)
				})},
				{Name: "close_payment", Run: page(func(ctx context.Context, p *urbanroutes.Page) error {
					return p.ClosePayment(ctx)
				})},
			},
		},
		{
			Name:         WriteMessage,
			Description:  "Leave a message for the driver.",
			Precondition: b.route,
			Steps:        []scenario.Step{b.orderTaxi(), b.message()},
			Assert: page(func(ctx context.Context, p *urbanroutes.Page) error {
				got, err := p.Message(ctx)
				if err != nil {
					return err
				}
				return scenario.Assertf(got == b.Fixtures.MessageForDriver, "message reads %q, want %q", got, b.Fixtures.MessageForDriver)
			}),
		},
		{
			Name:         RequestBlanketAndScarves,
			Description:  "Ask for a blanket and handkerchiefs.",
			Precondition: b.route,
			Steps: []scenario.Step{
				b.orderTaxi(),
				b.comfort(),
				{Name: "toggle_blanket", Run: page(func(ctx context.Context, p *urbanroutes.Page) error {
					return p.ToggleBlanket(ctx)
				})},
			},
			Assert: page(func(ctx context.Context, p *urbanroutes.Page) error {
				on, err := p.BlanketSelected(ctx)
				if err != nil {
					return err
				}
				return scenario.Assertf(on, "blanket checkbox is not selected")
			}),
		},
		{
			Name:         RequestIceCream,
			Description:  "Order two ice creams.",
			Precondition: b.route,
			Steps: []scenario.Step{
				b.orderTaxi(),
				b.comfort(),
				b.iceCream(1),
				b.iceCream(2),
			},
			Assert: page(func(ctx context.Context, p *urbanroutes.Page) error {
				n, err := p.IceCreamCount(ctx)
				if err != nil {
					return err
				}
				return scenario.Assertf(n == 2, "ice cream counter shows %d, want 2", n)
			}),
		},
		{
			Name:         SearchTaxi,
			Description:  "Place the order and wait for the car search modal.",
			Precondition: b.route,
			Steps: []scenario.Step{
				b.orderTaxi(),
				b.comfort(),
				b.message(),
				{Name: "place_order", Run: page(func(ctx context.Context, p *urbanroutes.Page) error {
					return p.PlaceOrder(ctx)
				})},
				{Name: "await_modal", Run: page(func(ctx context.Context, p *urbanroutes.Page) error {
					return p.AwaitOrderModal(ctx, b.ModalTimeout)
				})},
			},
			Assert: page(func(ctx context.Context, p *urbanroutes.Page) error {
				shown, err := p.OrderModalDisplayed(ctx)
				if err != nil {
					return err
				}
				return scenario.Assertf(shown, "car search modal is not displayed")
			}),
		},
	}
}

// route loads the page and sets both addresses, requiring an exact read-back.
// Reloading first keeps text from an earlier scenario out of the fields.
func (b builder) route(ctx context.Context, env *scenario.Env) error {
	p := urbanroutes.New(env.Actions)
	if err := p.Open(ctx, b.Fixtures.URL); err != nil {
		return err
	}
	if err := scenario.SetAndVerify(ctx, "from", b.Fixtures.AddressFrom, p.SetFrom, p.From); err != nil {
		return err
	}
	return scenario.SetAndVerify(ctx, "to", b.Fixtures.AddressTo, p.SetTo, p.To)
}

func (b builder) orderTaxi() scenario.Step {
	return scenario.Step{Name: "order_taxi", Run: page(func(ctx context.Context, p *urbanroutes.Page) error {
		return p.OrderTaxi(ctx)
	})}
}

func (b builder) comfort() scenario.Step {
	return scenario.Step{Name: "select_comfort", Run: page(func(ctx context.Context, p *urbanroutes.Page) error {
		return p.SelectComfort(ctx)
	})}
}

func (b builder) message() scenario.Step {
	return scenario.Step{Name: "write_message", Run: page(func(ctx context.Context, p *urbanroutes.Page) error {
		return p.WriteMessage(ctx, b.Fixtures.MessageForDriver)
	})}
}

func (b builder) iceCream(n int) scenario.Step {
	return scenario.Step{Name: fmt.Sprintf("add_icecream_%d", n), Run: page(func(ctx context.Context, p *urbanroutes.Page) error {
		return p.AddIceCream(ctx)
	})}
}

// page adapts a page object function to a step body.
func page(fn func(context.Context, *urbanroutes.Page) error) scenario.StepFunc {
	return func(ctx context.Context, env *scenario.Env) error {
		return fn(ctx, urbanroutes.New(env.Actions))
	}
}
