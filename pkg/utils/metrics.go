package utils

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// RegisterCollector registers c on reg, reusing an identical collector that
// is already registered (e.g. when several clients share a registry).
func RegisterCollector[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}
