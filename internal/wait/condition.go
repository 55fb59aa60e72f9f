package wait

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/routeflow/internal/browser"
)

// Kind is the predicate a wait checks against a located element.
type Kind int

const (
	// Present holds as soon as the element is in the document.
	Present Kind = iota
	// Visible holds when the element is rendered with a non-empty box.
	Visible
	// Clickable holds when the element is visible and enabled.
	Clickable
	// TextPresent holds when the element's text contains Condition.Text.
	TextPresent
)

func (k Kind) String() string {
	switch k {
	case Present:
		return "present"
	case Visible:
		return "visible"
	case Clickable:
		return "clickable"
	case TextPresent:
		return "text-present"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Condition describes what to wait for. A zero Timeout means the policy default.
type Condition struct {
	Kind    Kind
	Text    string
	Timeout time.Duration
}

func ForPresent() Condition   { return Condition{Kind: Present} }
func ForVisible() Condition   { return Condition{Kind: Visible} }
func ForClickable() Condition { return Condition{Kind: Clickable} }

// ForText waits until the element's text contains text.
func ForText(text string) Condition { return Condition{Kind: TextPresent, Text: text} }

// WithTimeout returns a copy of c bounded by d instead of the policy default.
func (c Condition) WithTimeout(d time.Duration) Condition {
	c.Timeout = d
	return c
}

func (c Condition) String() string {
	if c.Kind == TextPresent {
		return fmt.Sprintf("%s(%q)", c.Kind, c.Text)
	}
	return c.Kind.String()
}

// holds evaluates the condition against one element.
func (c Condition) holds(ctx context.Context, el browser.Element) (bool, error) {
	if c.Kind == Present {
		return true, nil
	}

	displayed, err := el.Displayed(ctx)
	if err != nil || !displayed {
		return false, err
	}

	switch c.Kind {
	case Visible:
		return true, nil
	case Clickable:
		return el.Enabled(ctx)
	case TextPresent:
		text, err := el.Text(ctx)
		if err != nil {
			return false, err
		}
		return strings.Contains(text, c.Text), nil
	default:
		return false, fmt.Errorf("unsupported wait condition %s", c.Kind)
	}
}
