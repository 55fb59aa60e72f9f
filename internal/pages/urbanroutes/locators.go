package urbanroutes

import (
	"fmt"

	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/locator"
)

// Names of the elements of the booking page.
const (
	FromField       = "from_field"
	ToField         = "to_field"
	OrderTaxiButton = "order_taxi_button"
	ComfortTariff   = "comfort_tariff"
	PhoneField      = "phone_field"
	PhoneInput      = "phone_input"
	NextButton      = "next_button"
	CodeInput       = "code_input"
	ConfirmButton   = "confirm_button"
	PaymentMethod   = "payment_method"
	AddCardButton   = "add_card_button"
	CardNumberInput = "card_number_input"
	CardCodeInput   = "card_code_input"
	LinkButton      = "link_button"
	CardAdded       = "card_added"
	PaymentClose    = "payment_close_button"
	MessageInput    = "message_input"
	BlanketSwitch   = "blanket_switch"
	BlanketCheckbox = "blanket_checkbox"
	IceCreamPlus    = "icecream_plus"
	IceCreamCounter = "icecream_counter"
	OrderButton     = "order_button"
	OrderModal      = "order_modal"
)

// Names returns every element name Page looks up.
func Names() []string {
	return []string{
		FromField, ToField, OrderTaxiButton, ComfortTariff,
		PhoneField, PhoneInput, NextButton, CodeInput, ConfirmButton,
		PaymentMethod, AddCardButton, CardNumberInput, CardCodeInput, LinkButton, CardAdded, PaymentClose,
		MessageInput, BlanketSwitch, BlanketCheckbox, IceCreamPlus, IceCreamCounter,
		OrderButton, OrderModal,
	}
}

// Validate checks that reg can resolve every name of Names. A registry that
// fails it would only surface mid-run as ErrUnknownLocator.
func Validate(reg *locator.Registry) error {
	if err := reg.Require(Names()...); err != nil {
		return fmt.Errorf("booking page registry is incomplete: %w", err)
	}
	return nil
}

// Definitions returns the default selectors of the booking page.
func Definitions() []locator.Locator {
	return []locator.Locator{
		locator.ByID(FromField, "from"),
		locator.ByID(ToField, "to"),
		locator.ByXPath(OrderTaxiButton, "//button[contains(text(),'Call a taxi')]"),
		locator.ByXPath(ComfortTariff, "//div[contains(@class,'tcard') and .//div[text()='Comfort']]"),
		locator.ByCSS(PhoneField, ".np-text"),
		locator.ByID(PhoneInput, "phone"),
		locator.ByXPath(NextButton, "//button[text()='Next']"),
		locator.ByID(CodeInput, "code"),
		locator.ByXPath(ConfirmButton, "//button[text()='Confirm']"),
		locator.ByCSS(PaymentMethod, ".pp-text"),
		locator.ByXPath(AddCardButton, "//div[contains(@class,'pp-title') and text()='Add card']"),
		locator.ByID(CardNumberInput, "number"),
		locator.ByXPath(CardCodeInput, "//input[@id='code' and @class='card-input']"),
		locator.ByXPath(LinkButton, "//button[text()='Link']"),
		locator.ByCSS(CardAdded, ".pp-checkbox"),
		locator.ByXPath(PaymentClose, "//div[contains(@class,'payment-picker')]//button[contains(@class,'close-button')]"),
		locator.ByID(MessageInput, "comment"),
		locator.ByCSS(BlanketSwitch, ".r-sw"),
		locator.ByCSS(BlanketCheckbox, ".switch-input"),
		locator.ByCSS(IceCreamPlus, ".counter-plus"),
		locator.ByCSS(IceCreamCounter, ".counter-value"),
		locator.ByCSS(OrderButton, ".smart-button"),
		locator.ByCSS(OrderModal, ".order-header-title"),
	}
}

// NewRegistry builds the registry of the booking page with the configured
// selector overrides applied on top of the defaults.
func NewRegistry(overrides map[string]config.LocatorConfig) (*locator.Registry, error) {
	reg, err := locator.NewRegistry(Definitions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build locator registry: %w", err)
	}
	if len(overrides) > 0 {
		if reg, err = applyOverrides(reg, overrides); err != nil {
			return nil, err
		}
	}
	if err := Validate(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func applyOverrides(reg *locator.Registry, overrides map[string]config.LocatorConfig) (*locator.Registry, error) {
	o := make(map[string]locator.Override, len(overrides))
	for name, lc := range overrides {
		o[name] = locator.Override{Strategy: lc.Strategy, Value: lc.Value}
	}
	next, err := reg.WithOverrides(o)
	if err != nil {
		return nil, fmt.Errorf("failed to apply locator overrides: %w", err)
	}
	return next, nil
}
