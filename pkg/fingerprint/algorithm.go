package fingerprint

import (
	"fmt"
	"strings"
)

// Algorithm selects a variant of the fingerprint algorithm.
type Algorithm int

const (
	Test1 Algorithm = iota
	Test2
	Test3
	Test4
	Test5

	// Default is the algorithm used when none is configured.
	Default = Test2
)

// Algorithms lists every supported algorithm in order.
var Algorithms = []Algorithm{Test1, Test2, Test3, Test4, Test5}

// String returns the lower-case name of the algorithm (e.g. "test2").
func (a Algorithm) String() string {
	if a < Test1 || a > Test5 {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
	return fmt.Sprintf("test%d", int(a)+1)
}

// ParseAlgorithm parses an algorithm name. It accepts "test1" through
// "test5" and "default", ignoring case and surrounding spaces.
func ParseAlgorithm(name string) (Algorithm, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "default" {
		return Default, true
	}
	for _, a := range Algorithms {
		if a.String() == name {
			return a, true
		}
	}
	return Default, false
}
