package fakebrowser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/locator"
)

type slot struct {
	elements []*Element
	// visibleAfter hides the slot from the first visibleAfter lookups.
	visibleAfter int
	lookups      int
	errs         []error
}

// Page is a scripted browser.Session.
type Page struct {
	mu          sync.Mutex
	id          string
	slots       map[string]*slot
	navigations []string
	navigateErr error
	onNavigate  func(url string)

	responses []browser.NetworkEntry
	bodies    map[string][]byte

	closed   bool
	closes   int
	closeErr error
}

var _ browser.Session = (*Page)(nil)

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{
		id:     uuid.NewString(),
		slots:  make(map[string]*slot),
		bodies: make(map[string][]byte),
	}
}

func (p *Page) slot(selector string) *slot {
	s, ok := p.slots[selector]
	if !ok {
		s = &slot{}
		p.slots[selector] = s
	}
	return s
}

// Add places elements under selector. The selector is the value produced by
// locator.Locator.Selector, which is the lookup key used by FindElements.
func (p *Page) Add(selector string, els ...*Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.slot(selector)
	s.elements = append(s.elements, els...)
	return p
}

// AddFor is Add keyed by a locator.
func (p *Page) AddFor(loc locator.Locator, els ...*Element) *Page {
	return p.Add(loc.Selector(), els...)
}

// AddAfter is Add, but the elements only show up from lookup number n+1 onwards.
func (p *Page) AddAfter(selector string, n int, els ...*Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.slot(selector)
	s.elements = append(s.elements, els...)
	s.visibleAfter = n
	return p
}

// Remove drops every element under selector.
func (p *Page) Remove(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.slots, selector)
}

// FailLookup queues errors returned by the next lookups of selector, one per lookup.
func (p *Page) FailLookup(selector string, errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.slot(selector)
	s.errs = append(s.errs, errs...)
}

// Lookups reports how many times selector was looked up.
func (p *Page) Lookups(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.slots[selector]; ok {
		return s.lookups
	}
	return 0
}

// SetNavigateError makes every later Navigate call fail with err.
func (p *Page) SetNavigateError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigateErr = err
}

// OnNavigate registers fn to run after every successful navigation, for
// resetting page state the way a reload would.
func (p *Page) OnNavigate(fn func(url string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onNavigate = fn
}

// Navigations returns the URLs navigated to, in order.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// AddResponse records a captured response with the given body and returns its request ID.
func (p *Page) AddResponse(url string, body []byte) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := fmt.Sprintf("req-%d", len(p.responses)+1)
	p.responses = append(p.responses, browser.NetworkEntry{RequestID: id, URL: url, Status: 200, ReceivedAt: time.Now()})
	p.bodies[id] = body
	return id
}

// SetCloseError makes Close fail with err.
func (p *Page) SetCloseError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeErr = err
}

// Closes reports how many times Close was called.
func (p *Page) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

// -- browser.Session --

func (p *Page) ID() string { return p.id }

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return browser.ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		p.mu.Unlock()
		return err
	}
	if p.navigateErr != nil {
		p.mu.Unlock()
		return p.navigateErr
	}
	p.navigations = append(p.navigations, url)
	fn := p.onNavigate
	p.mu.Unlock()

	if fn != nil {
		fn(url)
	}
	return nil
}

func (p *Page) FindElements(ctx context.Context, loc locator.Locator) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, browser.ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := p.slot(loc.Selector())
	s.lookups++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	if s.lookups <= s.visibleAfter {
		return nil, nil
	}

	out := make([]browser.Element, len(s.elements))
	for i, el := range s.elements {
		out[i] = el
	}
	return out, nil
}

func (p *Page) Responses(substr string) []browser.NetworkEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []browser.NetworkEntry
	for _, r := range p.responses {
		if strings.Contains(r.URL, substr) {
			out = append(out, r)
		}
	}
	return out
}

func (p *Page) ResponseBody(ctx context.Context, requestID string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, browser.ErrSessionClosed
	}
	body, ok := p.bodies[requestID]
	if !ok {
		return nil, fmt.Errorf("no body for request %s", requestID)
	}
	return body, nil
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	p.closed = true
	return p.closeErr
}
