package engine

import "fmt"

// Snapshot is the minimum persisted state needed to reconstruct a game
// exactly: grid, side to move, capture counts, the ko history window
// (oldest-first), and the consecutive-pass counter. The move record is
// carried for replay and SGF export; game status is derived from the pass
// counter. How and where a Snapshot is stored is up to the caller.
type Snapshot struct {
	Size          int          `json:"size"`
	Grid          string       `json:"grid"`
	ToMove        Color        `json:"toMove"`
	CapturedBlack int          `json:"capturedBlack"`
	CapturedWhite int          `json:"capturedWhite"`
	History       []string     `json:"history,omitempty"`
	Passes        int          `json:"consecutivePasses"`
	Record        []PlayedMove `json:"record,omitempty"`
}

// Snapshot captures the current game state.
func (g *Game) Snapshot() *Snapshot {
	s := &Snapshot{
		Size:          g.size,
		Grid:          encodeGrid(g.grid),
		ToMove:        g.toMove,
		CapturedBlack: g.capturedBlack,
		CapturedWhite: g.capturedWhite,
		History:       make([]string, len(g.history)),
		Passes:        g.passes,
		Record:        g.Record(),
	}
	copy(s.History, g.history)
	return s
}

// Restore rebuilds a game from a snapshot. The restored game accepts and
// rejects exactly the moves the original would, which requires the history
// window: without it ko detection breaks on reload.
func Restore(s *Snapshot) (*Game, error) {
	g, err := New(s.Size)
	if err != nil {
		return nil, err
	}
	grid, err := decodeGrid(s.Grid)
	if err != nil {
		return nil, err
	}
	if len(grid) != s.Size*s.Size {
		return nil, fmt.Errorf("grid has %d cells, want %d", len(grid), s.Size*s.Size)
	}
	if s.ToMove != Black && s.ToMove != White {
		return nil, fmt.Errorf("invalid side to move %d", s.ToMove)
	}
	if s.CapturedBlack < 0 || s.CapturedWhite < 0 || s.Passes < 0 {
		return nil, fmt.Errorf("negative counter in snapshot")
	}

	history := s.History
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	for i, prev := range history {
		if len(prev) != len(grid) {
			return nil, fmt.Errorf("history entry %d has %d cells, want %d", i, len(prev), len(grid))
		}
		if _, err := decodeGrid(prev); err != nil {
			return nil, fmt.Errorf("history entry %d: %w", i, err)
		}
	}

	g.grid = grid
	g.toMove = s.ToMove
	g.capturedBlack = s.CapturedBlack
	g.capturedWhite = s.CapturedWhite
	g.history = make([]string, len(history))
	copy(g.history, history)
	g.passes = s.Passes
	if g.passes >= 2 {
		g.status = Finished
	}
	g.record = make([]PlayedMove, len(s.Record))
	copy(g.record, s.Record)
	if n := len(g.record); n > 0 {
		g.lastMove = &g.record[n-1]
	}
	return g, nil
}
