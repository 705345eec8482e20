package engine

// Result is the final accounting of a finished game. Territory holds the
// owner of each empty point (Empty for neutral regions and occupied cells),
// in row-major order.
type Result struct {
	Black          int     `json:"black"`
	White          int     `json:"white"`
	BlackTerritory int     `json:"blackTerritory"`
	WhiteTerritory int     `json:"whiteTerritory"`
	Neutral        int     `json:"neutralPoints"`
	Winner         Color   `json:"-"`
	Territory      []Color `json:"-"`
}

// Score partitions the empty intersections into connected regions, credits
// each region bordered by exactly one color to that color, and adds each
// side's captured-stone count. It may only be called once the game is
// finished.
func (g *Game) Score() (*Result, error) {
	if g.status != Finished {
		return nil, ErrGameOngoing
	}

	res := &Result{Territory: make([]Color, len(g.grid))}
	visited := make([]bool, len(g.grid))

	for start := range g.grid {
		if g.grid[start] != Empty || visited[start] {
			continue
		}
		region, owner := g.fillRegion(start, visited)
		switch owner {
		case Black:
			res.BlackTerritory += len(region)
		case White:
			res.WhiteTerritory += len(region)
		default:
			res.Neutral += len(region)
		}
		if owner != Empty {
			for _, i := range region {
				res.Territory[i] = owner
			}
		}
	}

	res.Black = res.BlackTerritory + g.capturedBlack
	res.White = res.WhiteTerritory + g.capturedWhite
	switch {
	case res.Black > res.White:
		res.Winner = Black
	case res.White > res.Black:
		res.Winner = White
	default:
		res.Winner = Empty // tie
	}
	return res, nil
}

// fillRegion flood-fills the empty region containing start and returns its
// cell indices plus the owning color: the single bordering color, or Empty
// when the region touches both colors or none. The visited set is shared
// across the whole scan so every empty cell is visited exactly once.
func (g *Game) fillRegion(start int, visited []bool) ([]int, Color) {
	var region []int
	var sawBlack, sawWhite bool

	stack := []int{start}
	visited[start] = true
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		region = append(region, i)

		row, col := i/g.size, i%g.size
		for _, d := range directions {
			nr, nc := row+d[0], col+d[1]
			if !inBounds(g.size, nr, nc) {
				continue
			}
			n := index(g.size, nr, nc)
			switch g.grid[n] {
			case Empty:
				if !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			case Black:
				sawBlack = true
			case White:
				sawWhite = true
			}
		}
	}

	switch {
	case sawBlack && !sawWhite:
		return region, Black
	case sawWhite && !sawBlack:
		return region, White
	default:
		return region, Empty
	}
}
