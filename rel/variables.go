package rel

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// FreeVariables returns, in sorted order, the correlation variables used
// somewhere in the tree rooted at n but not bound by any node of that tree.
// A non-empty result means the tree is correlated to an enclosing query.
func FreeVariables(n Node) []string {
	used := map[string]struct{}{}
	set := map[string]struct{}{}
	Walk(n, func(n Node, _ int, _ Node) {
		n.CollectVariablesUsed(used)
		n.CollectVariablesSet(set)
	})
	for v := range set {
		delete(used, v)
	}
	free := maps.Keys(used)
	slices.Sort(free)
	return free
}
