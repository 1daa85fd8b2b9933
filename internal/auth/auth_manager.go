package auth

import (
	"time"

	"github.com/sabarim/brokerrelay/internal/config"
)

// Registry is the broker metadata table. It is built once at startup and never mutated;
// accessors hand out copies.
type Registry struct {
	brokers []Broker
}

// NewRegistry builds the broker table from configured credentials. Dhan comes first.
func NewRegistry(cfg config.Config, now time.Time) *Registry {
	stamp := now.UTC().Format(time.RFC3339)

	return &Registry{
		brokers: []Broker{
			{
				BrokerClientID:       cfg.Dhan.ClientID,
				BrokerName:           "Dhan",
				AppID:                "dhan-app-id",
				APIKey:               cfg.Dhan.APIToken,
				APISecret:            cfg.Dhan.APIToken,
				Status:               statusFor(cfg.Dhan.APIToken != ""),
				LastTokenGeneratedAt: stamp,
				AddedAt:              stamp,
			},
			{
				BrokerClientID:       cfg.Flattrade.ClientID,
				BrokerName:           "Flattrade",
				AppID:                "flattrade-app-id",
				APIKey:               cfg.Flattrade.APIKey,
				APISecret:            cfg.Flattrade.APISecret,
				Status:               statusFor(cfg.Flattrade.APIKey != "" && cfg.Flattrade.APISecret != ""),
				LastTokenGeneratedAt: stamp,
				AddedAt:              stamp,
			},
		},
	}
}

func statusFor(configured bool) string {
	if configured {
		return "Active"
	}
	return "Inactive"
}

// Brokers returns all brokers
func (r *Registry) Brokers() []Broker {
	out := make([]Broker, len(r.brokers))
	copy(out, r.brokers)
	return out
}

// Primary returns the first broker
func (r *Registry) Primary() (Broker, bool) {
	if len(r.brokers) == 0 {
		return Broker{}, false
	}
	return r.brokers[0], true
}
