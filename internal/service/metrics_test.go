package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/suggestbox/internal/service"
)

var _ = Describe("MetricsService", func() {
	It("is restricted to administrators", func() {
		st := newSeededStore()
		metrics := service.NewMetricsService(st, fixedNow)

		_, err := metrics.Dashboard(context.Background(), alice)
		Expect(err).To(MatchError(service.ErrForbidden))

		report, err := metrics.Dashboard(context.Background(), admin)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Total).To(Equal(2))
	})
})
