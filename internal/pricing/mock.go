package pricing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-build/estimator/internal/model"
)

// MockProvider serves canned pricing responses. It backs provider-level
// tests and demo estimates that must not touch catalog files.
type MockProvider struct {
	name string

	mu        sync.Mutex
	responses map[string]*Response
	err       error
	calls     int
}

// NewMockProvider creates an empty mock provider.
func NewMockProvider(name string) *MockProvider {
	if name == "" {
		name = "mock"
	}
	return &MockProvider{
		name:      name,
		responses: make(map[string]*Response),
	}
}

// NewSampleMockProvider creates a mock stocked with a few commodity items.
func NewSampleMockProvider() *MockProvider {
	p := NewMockProvider("mock")
	d := decimal.RequireFromString

	p.AddPrice("concrete bag", d("5.99"), d("0.1"))
	p.AddPrice("2x4 lumber", d("3.47"), d("0.05"))
	return p
}

// AddResponse registers a canned response for a description. Lookup also
// matches when either description contains the other.
func (p *MockProvider) AddResponse(description string, resp *Response) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[NormalizeDescription(description)] = resp
}

// AddPrice registers a canned response with the standard mock markup
// structure around a material price and labor hours.
func (p *MockProvider) AddPrice(description string, materialCost, laborHours decimal.Decimal) {
	d := decimal.RequireFromString
	laborRate := d("45.00")
	equipment := decimal.Zero
	overhead := d("0.15")
	profit := d("0.10")

	p.AddResponse(description, &Response{
		Description:          description,
		Source:               p.name,
		MaterialUnitCost:     &materialCost,
		LaborHoursPerUnit:    &laborHours,
		LaborRatePerHour:     &laborRate,
		EquipmentCostPerUnit: &equipment,
		OverheadRate:         &overhead,
		ProfitRate:           &profit,
		Confidence:           0.9,
		RetrievedAt:          time.Now().UTC(),
		Notes:                "Mock response",
	})
}

// SetError makes every subsequent GetPricing call fail with err.
func (p *MockProvider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Calls reports how many GetPricing calls the mock has served.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *MockProvider) Name() string { return p.name }

// GetPricing implements Provider against the canned response table.
func (p *MockProvider) GetPricing(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.err != nil {
		return nil, p.err
	}

	want := NormalizeDescription(req.Description)
	if resp, ok := p.responses[want]; ok {
		return resp, nil
	}
	for key, resp := range p.responses {
		if strings.Contains(want, key) || strings.Contains(key, want) {
			return resp, nil
		}
	}
	return nil, nil
}

// SearchItems implements Provider over the canned descriptions.
func (p *MockProvider) SearchItems(query string, trade model.Trade) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	want := NormalizeDescription(query)
	var items []string
	for key, resp := range p.responses {
		if strings.Contains(key, want) {
			items = append(items, resp.Description)
		}
	}
	return items
}

// SupportedTrades implements Provider. The mock prices every trade.
func (p *MockProvider) SupportedTrades() []model.Trade {
	return model.AllTrades()
}

// SupportedLocations implements Provider.
func (p *MockProvider) SupportedLocations() []string {
	return []string{"default"}
}

// Validate implements Provider. The mock accepts every request so tests can
// drive edge cases through it.
func (p *MockProvider) Validate(req Request) bool {
	return true
}
