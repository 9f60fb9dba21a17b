package strategy

import (
	"bytes"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/barsim/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	NameBuyAndHold  = "buy_and_hold"
	NameSellAndHold = "sell_and_hold"
	NameUTBot       = "ut_bot"
)

var validate = validator.New()

// Config selects a strategy by name and carries its exit rates and free-form parameters.
type Config struct {
	Name           string
	StopLossRate   optional.Option[float64]
	TakeProfitRate optional.Option[float64]
	Params         map[string]any
}

// Factory builds a strategy from its validated base and raw parameters.
type Factory func(base BaseStrategy, params map[string]any) (Strategy, error)

// Registry maps strategy names to factories.
type Registry interface {
	Register(name string, factory Factory) error
	Create(config Config) (Strategy, error)
	List() []string
}

type RegistryV1 struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *RegistryV1 {
	return &RegistryV1{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry returns a registry holding the bundled strategies.
func DefaultRegistry() Registry {
	r := NewRegistry()
	// names are distinct, registration cannot fail
	_ = r.Register(NameBuyAndHold, func(base BaseStrategy, _ map[string]any) (Strategy, error) {
		return NewBuyAndHold(base), nil
	})
	_ = r.Register(NameSellAndHold, func(base BaseStrategy, _ map[string]any) (Strategy, error) {
		return NewSellAndHold(base), nil
	})
	_ = r.Register(NameUTBot, func(base BaseStrategy, params map[string]any) (Strategy, error) {
		config := DefaultUTBotConfig()
		if err := DecodeParams(params, &config); err != nil {
			return nil, invalidParams(NameUTBot, err)
		}

		return NewUTBot(base, config)
	})

	return r
}

func (r *RegistryV1) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return errors.New(errors.ErrCodeMissingParameter, "strategy name is required")
	}

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

func (r *RegistryV1) Create(config Config) (Strategy, error) {
	r.mu.RLock()
	factory, exists := r.factories[config.Name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy %q, available: %v", config.Name, r.List())
	}

	base, err := NewBaseStrategy(config.StopLossRate, config.TakeProfitRate)
	if err != nil {
		return nil, err
	}

	return factory(base, config.Params)
}

// List returns the registered names in sorted order.
func (r *RegistryV1) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// DecodeParams overlays params onto out, which should already hold the defaults.
// Keys follow the yaml tags of out's fields.
func DecodeParams(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}

	data, err := yaml.Marshal(params)
	if err != nil {
		return err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	return decoder.Decode(out)
}

func invalidParams(name string, err error) error {
	return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "invalid parameters for strategy %s", name)
}
