package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
)

var _ = Describe("RegisterCollector", func() {
	newCounter := func() *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "calls_total", Help: "Calls."}, []string{"kind"})
	}

	It("registers a new collector", func() {
		reg := prometheus.NewRegistry()
		counter := newCounter()
		Expect(RegisterCollector(reg, counter)).To(BeIdenticalTo(counter))
	})

	It("reuses an identical collector that is already registered", func() {
		reg := prometheus.NewRegistry()
		first := RegisterCollector(reg, newCounter())
		second := RegisterCollector(reg, newCounter())
		Expect(second).To(BeIdenticalTo(first))
	})
})
