package orbitgraph_test

import (
	"errors"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/arithdyn/internal/orbitgraph"
)

func squareMod(m int) func(int) (int, error) {
	return func(x int) (int, error) { return x * x % m, nil }
}

func key(x int) string { return strconv.Itoa(x) }

var _ = Describe("Build", func() {
	Context("with x -> x^2 mod 7 on all residues", func() {
		var g *orbitgraph.Graph[int]

		BeforeEach(func() {
			var err error
			g, err = orbitgraph.Build([]int{0, 1, 2, 3, 4, 5, 6}, key, squareMod(7))
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps vertices in input order", func() {
			Expect(g.Vertices()).To(Equal([]int{0, 1, 2, 3, 4, 5, 6}))
		})

		It("gives every vertex exactly one successor", func() {
			for i := 0; i < g.Len(); i++ {
				Expect(g.Vertex(g.Successor(i))).To(Equal(g.Vertex(i) * g.Vertex(i) % 7))
			}
			Expect(g.Edges()).To(HaveLen(7))
		})

		It("finds the fixed points and the 2-cycle", func() {
			Expect(g.Cycles()).To(Equal([][]int{{0}, {1}, {2, 4}}))
		})

		It("reports tails and structure", func() {
			Expect(g.Tails()).To(Equal([]int{3, 5, 6}))
			pre, per := g.Structure(3)
			Expect(pre).To(Equal(1))
			Expect(per).To(Equal(2))
			Expect(g.Predecessors(2)).To(ConsistOf(3, 4))
		})

		It("exposes the adjacency list by key", func() {
			adj := g.AdjacencyList()
			Expect(adj).To(HaveKeyWithValue("6", "1"))
			Expect(adj).To(HaveKeyWithValue("0", "0"))
		})
	})

	It("collapses equal keys", func() {
		mod3 := func(x int) string { return strconv.Itoa(x % 3) }
		g, err := orbitgraph.Build([]int{1, 4, 7}, mod3, func(x int) (int, error) { return x, nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Len()).To(Equal(1))
		Expect(g.Successor(0)).To(Equal(0))
	})

	It("closes the vertex set under the map", func() {
		g, err := orbitgraph.Build([]int{3}, key, squareMod(7))
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Vertices()).To(Equal([]int{3, 2, 4}))
		Expect(g.IsPeriodic(0)).To(BeFalse())
		Expect(g.IsPeriodic(1)).To(BeTrue())
	})

	It("places images after every input point", func() {
		g, err := orbitgraph.Build([]int{3, 5, 2}, key, squareMod(7))
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Vertices()).To(Equal([]int{3, 5, 2, 4}))
		Expect(g.Successor(0)).To(Equal(2))
		Expect(g.Successor(1)).To(Equal(3))
		Expect(g.Cycles()).To(Equal([][]int{{2, 3}}))
	})

	It("propagates image errors", func() {
		boom := errors.New("boom")
		_, err := orbitgraph.Build([]int{1}, key, func(int) (int, error) { return 0, boom })
		Expect(err).To(MatchError(boom))
	})

	It("stops at the vertex limit", func() {
		inc := func(x int) (int, error) { return x + 1, nil }
		_, err := orbitgraph.Build([]int{0}, key, inc, orbitgraph.WithLimit(50))
		Expect(errors.Is(err, orbitgraph.ErrTooLarge)).To(BeTrue())
	})
})
