package engine

import (
	"strconv"

	"github.com/tayoshik/EnjoyGo/internal/cache"
)

var directions = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func index(size, row, col int) int { return row*size + col }

func inBounds(size, row, col int) bool {
	return row >= 0 && row < size && col >= 0 && col < size
}

// chainAt returns the maximal 4-connected set of stones sharing the color at
// p, or nil if p is empty. Traversal uses an explicit stack so memory stays
// bounded on large boards.
func chainAt(grid []Color, size int, p Point) []Point {
	color := grid[index(size, p.Row, p.Col)]
	if color == Empty {
		return nil
	}

	visited := make([]bool, len(grid))
	stack := []Point{p}
	var chain []Point
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i := index(size, cur.Row, cur.Col)
		if visited[i] {
			continue
		}
		visited[i] = true
		chain = append(chain, cur)

		for _, d := range directions {
			nr, nc := cur.Row+d[0], cur.Col+d[1]
			if inBounds(size, nr, nc) && !visited[index(size, nr, nc)] && grid[index(size, nr, nc)] == color {
				stack = append(stack, Point{Row: nr, Col: nc})
			}
		}
	}
	return chain
}

// liberties returns the empty points 4-adjacent to any stone of chain. An
// empty chain yields no liberties.
func liberties(grid []Color, size int, chain []Point) []Point {
	seen := make([]bool, len(grid))
	var libs []Point
	for _, p := range chain {
		for _, d := range directions {
			nr, nc := p.Row+d[0], p.Col+d[1]
			if !inBounds(size, nr, nc) {
				continue
			}
			i := index(size, nr, nc)
			if seen[i] {
				continue
			}
			seen[i] = true
			if grid[i] == Empty {
				libs = append(libs, Point{Row: nr, Col: nc})
			}
		}
	}
	return libs
}

// Chain returns the chain containing the stone at p, or nil for an empty or
// off-board point. Results are memoized per grid generation; a state-changing
// move invalidates every entry by bumping the generation tag.
func (g *Game) Chain(p Point) []Point {
	if !inBounds(g.size, p.Row, p.Col) {
		return nil
	}
	return g.chain(p)
}

// Liberties returns the liberty set of the chain containing p.
func (g *Game) Liberties(p Point) []Point {
	if !inBounds(g.size, p.Row, p.Col) {
		return nil
	}
	return liberties(g.grid, g.size, g.chain(p))
}

func (g *Game) chain(p Point) []Point {
	if g.chains == nil {
		return chainAt(g.grid, g.size, p)
	}
	key := strconv.Itoa(index(g.size, p.Row, p.Col))
	if v, ok := g.chains.Get(key, g.generation); ok {
		if chain, ok := v.([]Point); ok {
			return chain
		}
	}
	chain := chainAt(g.grid, g.size, p)
	g.chains.Put(key, g.generation, chain, int64(len(chain)+1))
	return chain
}

// CacheStats reports chain cache hit/miss counters. With the cache
// disabled it reports all zeroes.
func (g *Game) CacheStats() cache.Stats {
	return g.chains.Stats()
}
