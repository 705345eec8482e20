package engine

import "testing"

func TestSingleStoneCapture(t *testing.T) {
	// White (1,1) has its last liberty at (1,2).
	g := position(t, []string{
		".X...",
		"XO...",
		".X...",
		".....",
		".....",
	}, Black)

	mustPlay(t, g, 1, 2)

	if g.At(Point{1, 1}) != Empty {
		t.Errorf("captured stone still on board: %s", g.At(Point{1, 1}))
	}
	if got := g.Captured(Black); got != 1 {
		t.Errorf("Captured(Black) = %d, want 1", got)
	}
	if got := g.Captured(White); got != 0 {
		t.Errorf("Captured(White) = %d, want 0", got)
	}
}

func TestChainCapturedAtomically(t *testing.T) {
	// A three-stone white chain with a single remaining liberty at (1,4).
	g := position(t, []string{
		".XXX.",
		"XOOO.",
		".XXX.",
		".....",
		".....",
	}, Black)

	// A move elsewhere must not disturb the chain.
	mustPlay(t, g, 4, 4) // B
	if g.At(Point{1, 1}) != White {
		t.Fatal("chain removed while it still had a liberty")
	}
	mustPlay(t, g, 4, 0) // W

	mustPlay(t, g, 1, 4) // B fills the last liberty

	for _, p := range []Point{{1, 1}, {1, 2}, {1, 3}} {
		if g.At(p) != Empty {
			t.Errorf("At(%v) = %s after capture, want empty", p, g.At(p))
		}
	}
	if got := g.Captured(Black); got != 3 {
		t.Errorf("Captured(Black) = %d, want 3", got)
	}
}

func TestTwoDisjointChainsCaptured(t *testing.T) {
	// White (1,1) and (3,1) both have their last liberty at (2,1); white
	// (2,2) keeps a liberty at (2,3) and must survive.
	g := position(t, []string{
		".XX..",
		"XOX..",
		"X.O..",
		"XOX..",
		".X...",
	}, Black)

	mustPlay(t, g, 2, 1)

	if g.At(Point{1, 1}) != Empty || g.At(Point{3, 1}) != Empty {
		t.Error("disjoint white chains not both captured")
	}
	if g.At(Point{2, 2}) != White {
		t.Error("white stone with a liberty was removed")
	}
	if got := g.Captured(Black); got != 2 {
		t.Errorf("Captured(Black) = %d, want 2", got)
	}
}

func TestSuicideRejected(t *testing.T) {
	tests := []struct {
		name   string
		rows   []string
		toMove Color
		move   Point
	}{
		{
			name: "corner point with no liberties",
			rows: []string{
				".X...",
				"X....",
				".....",
				".....",
				".....",
			},
			toMove: White,
			move:   Point{0, 0},
		},
		{
			name: "filling the group's last eye",
			rows: []string{
				".OX..",
				"OOX..",
				"XXX..",
				".....",
				".....",
			},
			toMove: White,
			move:   Point{0, 0},
		},
		{
			name: "two-stone suicide",
			rows: []string{
				".XX..",
				"XO.X.",
				".XX..",
				".....",
				".....",
			},
			toMove: White,
			move:   Point{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := position(t, tt.rows, tt.toMove)
			err := g.Apply(Move{Point: tt.move})
			if reason(err) != ReasonSuicide {
				t.Errorf("Apply(%v) err = %v, want %s", tt.move, err, ReasonSuicide)
			}
			if g.IsLegal(tt.move) {
				t.Errorf("IsLegal(%v) = true for suicide", tt.move)
			}
		})
	}
}

func TestCapturingMoveIntoLastLibertyIsLegal(t *testing.T) {
	// Black (1,2) has no liberty of its own on placement, but it captures
	// white (1,1) first and lives on the vacated point. Not suicide.
	g := position(t, []string{
		".XO..",
		"XO.O.",
		".XO..",
		".....",
		".....",
	}, Black)

	if !g.IsLegal(Point{1, 2}) {
		t.Fatal("capturing placement reported illegal")
	}
	mustPlay(t, g, 1, 2)

	if g.At(Point{1, 1}) != Empty {
		t.Error("white stone not captured")
	}
	if g.At(Point{1, 2}) != Black {
		t.Error("capturing stone missing")
	}
	if got := g.Captured(Black); got != 1 {
		t.Errorf("Captured(Black) = %d, want 1", got)
	}
	// The surrounding white stones keep their liberties.
	for _, p := range []Point{{0, 2}, {1, 3}, {2, 2}} {
		if g.At(p) != White {
			t.Errorf("At(%v) = %s, want white", p, g.At(p))
		}
	}
}

func TestKoRecaptureRejectedThenAllowed(t *testing.T) {
	g, err := New(19)
	if err != nil {
		t.Fatal(err)
	}

	// Build the classic single-stone ko shape near the top-left corner.
	moves := []Point{
		{0, 1},   // B
		{0, 2},   // W
		{1, 0},   // B
		{1, 3},   // W
		{2, 1},   // B
		{2, 2},   // W
		{16, 16}, // B tenuki
		{1, 1},   // W fills the mouth, one liberty at (1,2)
	}
	for _, p := range moves {
		mustPlay(t, g, p.Row, p.Col)
	}

	// Black captures the ko stone.
	mustPlay(t, g, 1, 2)
	if g.At(Point{1, 1}) != Empty {
		t.Fatal("ko stone not captured")
	}

	// Immediate recapture would reproduce the pre-capture grid, which is
	// still inside the history window.
	err = g.Play(1, 1)
	if reason(err) != ReasonKo {
		t.Fatalf("immediate recapture err = %v, want %s", err, ReasonKo)
	}
	if g.IsLegal(Point{1, 1}) {
		t.Error("IsLegal reports the ko recapture as legal")
	}

	// After an exchange elsewhere the candidate position no longer matches
	// any stored snapshot, so the recapture is accepted.
	mustPlay(t, g, 16, 2) // W
	mustPlay(t, g, 16, 4) // B
	if err := g.Play(1, 1); err != nil {
		t.Fatalf("recapture after exchange: %v", err)
	}
	if g.At(Point{1, 2}) != Empty {
		t.Error("black ko stone not captured back")
	}
}

func TestKoCheckHasNoSideEffects(t *testing.T) {
	g, err := New(19)
	if err != nil {
		t.Fatal(err)
	}
	moves := []Point{
		{0, 1}, {0, 2}, {1, 0}, {1, 3}, {2, 1}, {2, 2}, {16, 16}, {1, 1},
	}
	for _, p := range moves {
		mustPlay(t, g, p.Row, p.Col)
	}
	mustPlay(t, g, 1, 2)

	before := g.Snapshot()
	for i := 0; i < 5; i++ {
		if g.IsLegal(Point{1, 1}) {
			t.Fatal("ko recapture reported legal")
		}
	}
	after := g.Snapshot()
	if before.Grid != after.Grid || before.ToMove != after.ToMove {
		t.Error("IsLegal mutated committed state")
	}
	if len(before.History) != len(after.History) {
		t.Error("IsLegal changed history")
	}
}

func TestLegalMoves(t *testing.T) {
	g := position(t, []string{
		".X.",
		"X.O",
		".O.",
	}, White)

	moves := g.LegalMoves()

	occupied := map[Point]bool{
		{0, 1}: true, {1, 0}: true, {1, 2}: true, {2, 1}: true,
	}
	for _, p := range moves {
		if occupied[p] {
			t.Errorf("LegalMoves() includes occupied point %v", p)
		}
		if !g.IsLegal(p) {
			t.Errorf("LegalMoves() returned %v but IsLegal rejects it", p)
		}
	}

	// Row-major ordering.
	for i := 1; i < len(moves); i++ {
		prev := index(g.Size(), moves[i-1].Row, moves[i-1].Col)
		cur := index(g.Size(), moves[i].Row, moves[i].Col)
		if cur <= prev {
			t.Fatalf("LegalMoves() not in row-major order: %v after %v", moves[i], moves[i-1])
		}
	}

	// Recomputed per call.
	mustPlay(t, g, 1, 1)
	for _, p := range g.LegalMoves() {
		if p == (Point{1, 1}) {
			t.Error("LegalMoves() still lists a now-occupied point")
		}
	}
}

func TestLegalMovesOnFinishedGame(t *testing.T) {
	g := finished(t, []string{
		"X.",
		".O",
	})
	if moves := g.LegalMoves(); moves != nil {
		t.Errorf("LegalMoves() on finished game = %v, want nil", moves)
	}
}

func TestSuicideRejectedOnSmallestBoard(t *testing.T) {
	// On 2x2, black stones at (0,1) and (1,0) make (0,0) a suicide for
	// white; the rule holds for every supported size.
	g := position(t, []string{
		".X",
		"X.",
	}, White)
	if err := g.Play(0, 0); reason(err) != ReasonSuicide {
		t.Fatalf("err = %v, want %s", err, ReasonSuicide)
	}
}
