package order

// Elimination is the result of [MinDegree].
type Elimination struct {
	// Order lists every vertex exactly once in elimination order.
	Order []int
	// Fill is the number of edges added while eliminating.
	Fill int
	// Width is the largest number of neighbours a vertex had when it was
	// eliminated.
	Width int
}

// MinDegree computes a greedy minimum-degree elimination order of g.
//
// At each step the live vertex with the fewest live neighbours is removed
// (lowest index on ties) and its neighbours are connected pairwise. g is not
// modified.
func MinDegree(g *Graph) Elimination {
	w := g.Clone()
	n := w.Len()
	alive := make([]bool, n)
	for v := range alive {
		alive[v] = true
	}
	res := Elimination{Order: make([]int, 0, n)}

	for range n {
		best, bestDeg := -1, 0
		for v := range n {
			if !alive[v] {
				continue
			}
			if d := len(w.adj[v]); best < 0 || d < bestDeg {
				best, bestDeg = v, d
			}
		}
		nb := w.Neighbors(best)
		res.Width = max(res.Width, len(nb))
		for i, u := range nb {
			for _, x := range nb[i+1:] {
				if _, ok := w.adj[u][x]; !ok {
					res.Fill++
					w.adj[u][x] = struct{}{}
					w.adj[x][u] = struct{}{}
				}
			}
		}
		for _, u := range nb {
			delete(w.adj[u], best)
		}
		w.adj[best] = nil
		alive[best] = false
		res.Order = append(res.Order, best)
	}
	return res
}
