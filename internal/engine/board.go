// Package engine implements the rules of Go: move legality, stone capture,
// ko detection against a bounded history window, and area scoring.
package engine

import (
	"fmt"

	"github.com/tayoshik/EnjoyGo/internal/cache"
)

// Color is the content of a board intersection.
type Color byte

const (
	Empty Color = iota
	Black
	White
)

// Opponent returns the opposing color. Empty has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// MarshalJSON encodes the color by name.
func (c Color) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON decodes a color name.
func (c *Color) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"black"`:
		*c = Black
	case `"white"`:
		*c = White
	case `"empty"`:
		*c = Empty
	default:
		return fmt.Errorf("invalid color %s", data)
	}
	return nil
}

// Point is a board coordinate. Row 0 is the top edge, Col 0 the left edge.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Move is a single ply: either a coordinate placement or a pass.
type Move struct {
	Point Point `json:"point"`
	Pass  bool  `json:"pass,omitempty"`
}

// MoveAt returns a placement move for the given coordinate.
func MoveAt(row, col int) Move {
	return Move{Point: Point{Row: row, Col: col}}
}

// PassMove is the pass sentinel.
var PassMove = Move{Pass: true}

func (m Move) String() string {
	if m.Pass {
		return "pass"
	}
	return fmt.Sprintf("(%d,%d)", m.Point.Row, m.Point.Col)
}

// PlayedMove is an accepted move as recorded in the game log.
type PlayedMove struct {
	Color Color `json:"color"`
	Move  Move  `json:"move"`
}

// Status is the lifecycle state of a game.
type Status int

const (
	Ongoing Status = iota
	Finished
)

func (s Status) String() string {
	if s == Finished {
		return "finished"
	}
	return "ongoing"
}

const (
	// MinBoardSize and MaxBoardSize bound supported board sizes. The upper
	// cap keeps flood-fill costs bounded.
	MinBoardSize = 2
	MaxBoardSize = 25

	// DefaultBoardSize is the standard full board.
	DefaultBoardSize = 19

	// HistoryWindow is the number of prior grid snapshots kept for ko
	// detection. Repetitions older than the window are not rejected; this
	// approximation of full superko is deliberate.
	HistoryWindow = 8
)

// Game owns the board grid, the side to move, capture counts, and the bounded
// history of prior grids used for ko detection. A Game must be driven by a
// single caller at a time; it performs no internal locking.
type Game struct {
	size          int
	grid          []Color // row-major, size*size
	toMove        Color
	status        Status
	history       []string // encoded prior grids, oldest-first, cap HistoryWindow
	record        []PlayedMove
	lastMove      *PlayedMove
	passes        int
	capturedBlack int
	capturedWhite int

	// generation version-tags the grid content. Every state-changing Apply
	// bumps it, which invalidates all chain cache entries at once.
	generation uint64
	chains     *cache.LRU
}

// CacheOptions bounds the chain memoization cache. A zero MaxItems or
// MaxBytes leaves that dimension at its size-derived default.
type CacheOptions struct {
	Enabled  bool
	MaxItems int
	MaxBytes int64
}

// New creates a game on an empty size×size board with Black to move,
// using the default chain cache sizing.
func New(size int) (*Game, error) {
	return NewWithCache(size, CacheOptions{Enabled: true})
}

// NewWithCache creates a game with explicit chain cache bounds. Disabling
// the cache keeps every query correct; chains are just recomputed per call.
func NewWithCache(size int, opts CacheOptions) (*Game, error) {
	if size < MinBoardSize || size > MaxBoardSize {
		return nil, &SizeError{Size: size}
	}
	g := &Game{
		size:   size,
		grid:   make([]Color, size*size),
		toMove: Black,
	}
	if opts.Enabled {
		maxItems := opts.MaxItems
		if maxItems <= 0 {
			maxItems = 2 * size * size
		}
		g.chains = cache.NewLRU(maxItems, opts.MaxBytes)
	}
	return g, nil
}

// Apply attempts a move for the side to move. A rejected move returns a
// *MoveError and leaves every part of the game state unchanged.
func (g *Game) Apply(m Move) error {
	if g.status != Ongoing {
		return &MoveError{Move: m, Reason: ReasonFinished}
	}

	if m.Pass {
		g.passes++
		g.commit(m)
		if g.passes >= 2 {
			g.status = Finished
		}
		return nil
	}

	next, captured, err := g.evaluate(m.Point)
	if err != nil {
		return err
	}

	// The pre-move grid is what ko detection must compare future candidates
	// against.
	g.pushHistory(encodeGrid(g.grid))
	g.grid = next
	switch g.toMove {
	case Black:
		g.capturedBlack += len(captured)
	case White:
		g.capturedWhite += len(captured)
	}
	g.passes = 0
	g.generation++
	g.commit(m)
	return nil
}

// commit records the move and hands the turn to the opponent.
func (g *Game) commit(m Move) {
	played := PlayedMove{Color: g.toMove, Move: m}
	g.record = append(g.record, played)
	g.lastMove = &played
	g.toMove = g.toMove.Opponent()
}

func (g *Game) pushHistory(key string) {
	g.history = append(g.history, key)
	if len(g.history) > HistoryWindow {
		g.history = g.history[1:]
	}
}

// Play attempts a placement at (row, col) for the side to move.
func (g *Game) Play(row, col int) error {
	return g.Apply(MoveAt(row, col))
}

// Pass plays a pass for the side to move. Two consecutive passes finish the
// game.
func (g *Game) Pass() error {
	return g.Apply(PassMove)
}

// Size returns the board dimension.
func (g *Game) Size() int { return g.size }

// At returns the content of p, or Empty if p is off the board.
func (g *Game) At(p Point) Color {
	if !inBounds(g.size, p.Row, p.Col) {
		return Empty
	}
	return g.grid[index(g.size, p.Row, p.Col)]
}

// Grid returns a copy of the board contents in row-major order.
func (g *Game) Grid() []Color {
	out := make([]Color, len(g.grid))
	copy(out, g.grid)
	return out
}

// ToMove returns the side to move.
func (g *Game) ToMove() Color { return g.toMove }

// Status returns the game lifecycle state.
func (g *Game) Status() Status { return g.status }

// Captured returns the number of opponent stones the given color has captured.
func (g *Game) Captured(c Color) int {
	switch c {
	case Black:
		return g.capturedBlack
	case White:
		return g.capturedWhite
	default:
		return 0
	}
}

// LastMove returns the most recently accepted move, if any.
func (g *Game) LastMove() (PlayedMove, bool) {
	if g.lastMove == nil {
		return PlayedMove{}, false
	}
	return *g.lastMove, true
}

// Record returns a copy of the accepted-move log, one entry per ply.
func (g *Game) Record() []PlayedMove {
	out := make([]PlayedMove, len(g.record))
	copy(out, g.record)
	return out
}

// ConsecutivePasses returns the current run of passes.
func (g *Game) ConsecutivePasses() int { return g.passes }

// encodeGrid renders a grid as one byte per cell: '.', 'X', 'O'. The encoding
// doubles as the byte-for-byte comparison key for ko detection and as the
// persisted grid layout.
func encodeGrid(g []Color) string {
	buf := make([]byte, len(g))
	for i, c := range g {
		switch c {
		case Black:
			buf[i] = 'X'
		case White:
			buf[i] = 'O'
		default:
			buf[i] = '.'
		}
	}
	return string(buf)
}

func decodeGrid(s string) ([]Color, error) {
	grid := make([]Color, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'X':
			grid[i] = Black
		case 'O':
			grid[i] = White
		case '.':
			grid[i] = Empty
		default:
			return nil, fmt.Errorf("invalid grid cell %q at offset %d", s[i], i)
		}
	}
	return grid, nil
}
