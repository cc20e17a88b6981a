package selection

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
)

// Registry holds one machine per asset class
type Registry struct {
	machines map[domain.AssetClass]*Machine
}

// NewRegistry creates machines for every asset class
func NewRegistry(eventManager *events.Manager, log zerolog.Logger) *Registry {
	machines := make(map[domain.AssetClass]*Machine, len(domain.AllAssetClasses))
	for _, class := range domain.AllAssetClasses {
		machines[class] = NewMachine(class, eventManager, log)
	}
	return &Registry{machines: machines}
}

// Get returns the machine for class
func (r *Registry) Get(class domain.AssetClass) (*Machine, error) {
	m, ok := r.machines[class]
	if !ok {
		return nil, fmt.Errorf("no selection machine for asset class %q", class)
	}
	return m, nil
}

// Sync forwards freshly fetched holdings to the class's machine
func (r *Registry) Sync(class domain.AssetClass, holdings map[string]decimal.Decimal) {
	if m, ok := r.machines[class]; ok {
		m.Sync(holdings)
	}
}
