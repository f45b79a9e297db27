package experiment_test

import (
	"context"
	"math"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/arithdyn/internal/config"
	"github.com/san-kum/arithdyn/internal/dynamo"
	"github.com/san-kum/arithdyn/internal/experiment"
)

func keys(pts []dynamo.Point) []string {
	out := make([]string, len(pts))
	for i, p := range pts {
		out[i] = p.Key()
	}
	return out
}

func preset(name string) *config.Config {
	cfg, ok := config.FromPreset(name)
	Expect(ok).To(BeTrue(), name)
	return cfg
}

func run(cfg *config.Config) *experiment.Report {
	e, err := experiment.New(cfg, log.New(GinkgoWriter))
	Expect(err).NotTo(HaveOccurred())
	r, err := e.Run(context.Background())
	Expect(err).NotTo(HaveOccurred())
	return r
}

var _ = Describe("Experiment", func() {
	Context("with the quadratic 3-cycle map", func() {
		var r *experiment.Report

		BeforeEach(func() {
			cfg := preset("quadratic/poonen")
			cfg.ErrorBound = 0.01
			r = run(cfg)
		})

		It("runs every stage", func() {
			Expect(r.Backend).To(Equal("rational"))
			Expect(r.Skipped).To(BeEmpty())
			Expect(r.Timings).To(HaveLen(6))
		})

		It("finds the bad primes and possible periods", func() {
			Expect(r.BadPrimes).To(Equal([]int64{2}))
			Expect(r.Periods).To(Equal([]int{1, 3}))
			Expect(r.SievePrimes).To(Equal([]int64{3, 5, 7, 11, 13, 17, 19}))
		})

		It("finds the periodic and preperiodic points", func() {
			Expect(keys(r.Periodic)).To(Equal([]string{"-7:4", "-1:4", "1:0", "5:4"}))
			Expect(r.Preperiodic).To(HaveLen(9))
			for _, p := range r.Periodic {
				Expect(keys(r.Preperiodic)).To(ContainElement(p.Key()))
			}
		})

		It("links them in an orbit graph", func() {
			Expect(r.Graph.Len()).To(Equal(9))
			Expect(r.Graph.Cycles()).To(HaveLen(2))
			Expect(r.Graph.Tails()).To(HaveLen(5))
			i, ok := r.Graph.Index("-1:4")
			Expect(ok).To(BeTrue())
			Expect(r.Graph.Key(r.Graph.Successor(i))).To(Equal("-7:4"))
		})

		It("evaluates the configured heights", func() {
			Expect(r.Heights).To(HaveLen(2))
			Expect(r.Heights[0].Value).To(BeNumerically("<=", 0.01))
			Expect(r.Heights[0].Bounded).To(BeTrue())
			Expect(r.Heights[1].Value).To(BeNumerically("~", 1.384, 0.02))
		})
	})

	Context("with a map over GF(5)", func() {
		It("enumerates the finite dynamics", func() {
			r := run(preset("finite/squares-gf5"))
			Expect(r.Backend).To(Equal("finite"))
			Expect(r.BadPrimes).To(BeEmpty())
			Expect(r.Periods).To(Equal([]int{1}))
			Expect(keys(r.Periodic)).To(Equal([]string{"0:1", "1:0", "1:1"}))
			Expect(r.Preperiodic).To(HaveLen(6))
			Expect(r.Graph.Len()).To(Equal(6))
			Expect(r.Graph.Cycles()).To(HaveLen(3))
		})
	})

	Context("with a map on P^2", func() {
		It("skips the P^1-only preperiodic search", func() {
			cfg := preset("plane/squares")
			cfg.Periods = []int{1}
			cfg.Stages = []string{"preperiodic", "heights"}
			r := run(cfg)
			Expect(r.Skipped).To(HaveKey("preperiodic"))
			Expect(r.Heights).To(HaveLen(1))
			Expect(r.Heights[0].Value).To(BeNumerically("~", math.Log(2), 1e-9))
		})
	})

	Context("with a generic field", func() {
		It("reports every arithmetic stage as skipped", func() {
			cfg := config.DefaultConfig()
			cfg.Map = config.MapConfig{Field: "QQ(i)", Polys: []string{"x^2", "y^2"}}
			cfg.Points = [][]string{{"1", "1"}}
			r := run(cfg)
			Expect(r.Model).To(Equal("custom"))
			Expect(r.Backend).To(Equal("generic"))
			Expect(r.Skipped).To(HaveLen(5))
			Expect(r.Skipped).NotTo(HaveKey("graph"))
			Expect(r.Graph).To(BeNil())
		})
	})

	It("rejects unknown stages", func() {
		cfg := preset("rational/newton")
		cfg.Stages = []string{"bad-primes", "teleport"}
		e, err := experiment.New(cfg, log.New(GinkgoWriter))
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Run(context.Background())
		Expect(err).To(MatchError(ContainSubstring("unknown stage")))
	})

	It("rejects conflicting options before running", func() {
		cfg := preset("rational/newton")
		cfg.ErrorBound = 0.1
		cfg.Iterations = 3
		_, err := experiment.New(cfg, nil)
		Expect(err).To(MatchError(dynamo.ErrConflictingOptions))
	})
})

var _ = Describe("Registry", func() {
	reg := experiment.NewRegistry()

	It("lists stages in pipeline order", func() {
		Expect(reg.ListStages()).To(Equal([]string{"bad-primes", "periods", "periodic", "preperiodic", "graph", "heights"}))
	})

	It("builds preset models", func() {
		Expect(reg.ListModels()).To(ContainElement("quadratic/poonen"))
		f, err := reg.GetModel("plane/squares")
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Dim()).To(Equal(2))
		_, err = reg.GetModel("plane/missing")
		Expect(err).To(HaveOccurred())
	})
})
