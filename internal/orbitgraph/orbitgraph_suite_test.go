package orbitgraph_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestOrbitGraph(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OrbitGraph Suite")
}
