package engine

// IsLegal reports whether the side to move may place a stone at p. The check
// never mutates committed state: the candidate position is computed as a fresh
// grid value and discarded.
func (g *Game) IsLegal(p Point) bool {
	_, _, err := g.evaluate(p)
	return err == nil
}

// evaluate computes the grid that would result from the side to move playing
// p, together with the captured points, and rejects the move if it violates a
// rule. Checks run in order: status, bounds, occupancy, ko, suicide.
func (g *Game) evaluate(p Point) ([]Color, []Point, *MoveError) {
	m := Move{Point: p}
	if g.status != Ongoing {
		return nil, nil, &MoveError{Move: m, Reason: ReasonFinished}
	}
	if !inBounds(g.size, p.Row, p.Col) {
		return nil, nil, &MoveError{Move: m, Reason: ReasonOutOfRange}
	}
	if g.grid[index(g.size, p.Row, p.Col)] != Empty {
		return nil, nil, &MoveError{Move: m, Reason: ReasonOccupied}
	}

	captured := g.capturesFrom(p, g.toMove)

	next := make([]Color, len(g.grid))
	copy(next, g.grid)
	next[index(g.size, p.Row, p.Col)] = g.toMove
	for _, q := range captured {
		next[index(g.size, q.Row, q.Col)] = Empty
	}

	// Ko: the candidate position must not reproduce any grid still inside
	// the history window.
	if len(g.history) > 0 {
		key := encodeGrid(next)
		for _, prev := range g.history {
			if prev == key {
				return nil, nil, &MoveError{Move: m, Reason: ReasonKo}
			}
		}
	}

	// Suicide: legal iff the placed chain keeps a liberty or the placement
	// captured at least one stone.
	if len(captured) == 0 {
		own := chainAt(next, g.size, p)
		if len(liberties(next, g.size, own)) == 0 {
			return nil, nil, &MoveError{Move: m, Reason: ReasonSuicide}
		}
	}

	return next, captured, nil
}

// capturesFrom returns every opposing chain that would lose its last liberty
// when mover occupies p. A single placement may capture several disjoint
// chains; their points are returned as one set. The mover's own stones are
// never included.
func (g *Game) capturesFrom(p Point, mover Color) []Point {
	enemy := mover.Opponent()
	var captured []Point
	taken := make([]bool, len(g.grid))

	for _, d := range directions {
		nr, nc := p.Row+d[0], p.Col+d[1]
		if !inBounds(g.size, nr, nc) {
			continue
		}
		i := index(g.size, nr, nc)
		if g.grid[i] != enemy || taken[i] {
			continue
		}

		chain := g.chain(Point{Row: nr, Col: nc})
		if lastLibertyIs(g.grid, g.size, chain, p) {
			for _, q := range chain {
				taken[index(g.size, q.Row, q.Col)] = true
			}
			captured = append(captured, chain...)
		}
	}
	return captured
}

// lastLibertyIs reports whether the chain's liberty set, excluding p, is
// empty.
func lastLibertyIs(grid []Color, size int, chain []Point, p Point) bool {
	for _, lib := range liberties(grid, size, chain) {
		if lib != p {
			return false
		}
	}
	return true
}

// LegalMoves enumerates every legal placement for the side to move in
// row-major order. The result is recomputed from current state on each call;
// a finished game has no legal moves.
func (g *Game) LegalMoves() []Point {
	if g.status != Ongoing {
		return nil
	}
	var moves []Point
	for row := 0; row < g.size; row++ {
		for col := 0; col < g.size; col++ {
			if g.grid[index(g.size, row, col)] != Empty {
				continue
			}
			p := Point{Row: row, Col: col}
			if g.IsLegal(p) {
				moves = append(moves, p)
			}
		}
	}
	return moves
}
