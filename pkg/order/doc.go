// Package order builds elimination graphs and computes fill-reducing
// elimination orders.
//
// Vertices are dense integers; callers map their own nodes (genes, in the
// peel compiler) onto 0..n-1. [MinDegree] is the classic greedy heuristic
// from sparse Cholesky factorisation: repeatedly eliminate the vertex of
// smallest current degree and turn its neighbourhood into a clique.
//
//	g := order.NewGraph(4)
//	g.AddEdge(0, 1)
//	g.AddEdge(1, 2)
//	g.AddEdge(2, 3)
//	e := order.MinDegree(g) // e.Order == [0 1 2 3]
package order
