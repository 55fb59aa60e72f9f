// Package locator holds the named, stable references used to find UI elements.
// Step logic refers to elements only by name; the selector behind a name is
// decided once, when the Registry is built.
package locator

import (
	"fmt"
	"strings"
)

// Strategy identifies how a selector value is interpreted by the browser engine.
type Strategy string

const (
	CSS   Strategy = "css"
	XPath Strategy = "xpath"
	ID    Strategy = "id"
	Name  Strategy = "name"
)

// ParseStrategy maps a configuration string onto a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case CSS, XPath, ID, Name:
		return st, nil
	case "":
		return CSS, nil
	default:
		return "", fmt.Errorf("unknown locator strategy %q", s)
	}
}

// Locator is an immutable reference to one UI element (or a family of equivalent elements).
type Locator struct {
	Name     string
	Strategy Strategy
	Value    string
}

// ByCSS, ByXPath, ByID and ByName are shorthands for building definitions.
func ByCSS(name, value string) Locator   { return Locator{Name: name, Strategy: CSS, Value: value} }
func ByXPath(name, value string) Locator { return Locator{Name: name, Strategy: XPath, Value: value} }
func ByID(name, value string) Locator    { return Locator{Name: name, Strategy: ID, Value: value} }
func ByName(name, value string) Locator  { return Locator{Name: name, Strategy: Name, Value: value} }

// String renders the locator for logs and error messages.
func (l Locator) String() string {
	return fmt.Sprintf("%s(%s=%s)", l.Name, l.Strategy, l.Value)
}

// Selector returns the selector in the form understood by a CSS/XPath capable engine.
// ID and Name strategies are rewritten to attribute selectors so every strategy can match many elements.
func (l Locator) Selector() string {
	switch l.Strategy {
	case ID:
		return fmt.Sprintf(`[id="%s"]`, cssEscape(l.Value))
	case Name:
		return fmt.Sprintf(`[name="%s"]`, cssEscape(l.Value))
	default:
		return l.Value
	}
}

func cssEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func (l Locator) validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("locator has an empty name")
	}
	if strings.TrimSpace(l.Value) == "" {
		return fmt.Errorf("locator %q has an empty selector", l.Name)
	}
	if _, err := ParseStrategy(string(l.Strategy)); err != nil {
		return fmt.Errorf("locator %q: %w", l.Name, err)
	}
	return nil
}
