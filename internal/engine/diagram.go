package engine

import (
	"fmt"
	"strings"
)

// FormatPoint renders p in letter-number style ("D4"), columns A-T skipping
// I, rows counted from the bottom edge.
func FormatPoint(p Point, size int) string {
	col := 'A' + rune(p.Col)
	if p.Col >= 8 {
		col++ // skip 'I'
	}
	return fmt.Sprintf("%c%d", col, size-p.Row)
}

// ParsePoint parses a letter-number coordinate. It returns false for
// malformed input and for coordinates off a size×size board.
func ParsePoint(coord string, size int) (Point, bool) {
	coord = strings.ToUpper(strings.TrimSpace(coord))
	if len(coord) < 2 {
		return Point{}, false
	}

	c := coord[0]
	if c < 'A' || c > 'Z' || c == 'I' {
		return Point{}, false
	}
	col := int(c - 'A')
	if c > 'I' {
		col--
	}

	var rowNum int
	if _, err := fmt.Sscanf(coord[1:], "%d", &rowNum); err != nil {
		return Point{}, false
	}
	p := Point{Row: size - rowNum, Col: col}
	if !inBounds(size, p.Row, p.Col) {
		return Point{}, false
	}
	return p, true
}

// Diagram renders the board as text: ● for black stones, ○ for white, · for
// empty points, with coordinate labels on all sides.
func (g *Game) Diagram() string {
	return g.render(func(i int) string {
		switch g.grid[i] {
		case Black:
			return " ●"
		case White:
			return " ○"
		default:
			return " ·"
		}
	})
}

// TerritoryDiagram renders a scored position: stones as on Diagram, empty
// points marked with the owning side's symbol or left neutral.
func (g *Game) TerritoryDiagram(res *Result) string {
	body := g.render(func(i int) string {
		switch {
		case g.grid[i] == Black:
			return " ●"
		case g.grid[i] == White:
			return " ○"
		case res.Territory[i] == Black:
			return " x"
		case res.Territory[i] == White:
			return " o"
		default:
			return " ·"
		}
	})

	var sb strings.Builder
	sb.WriteString(body)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Black: %d territory + %d captures = %d\n",
		res.BlackTerritory, g.capturedBlack, res.Black))
	sb.WriteString(fmt.Sprintf("White: %d territory + %d captures = %d\n",
		res.WhiteTerritory, g.capturedWhite, res.White))
	switch res.Winner {
	case Empty:
		sb.WriteString("Result: tie\n")
	default:
		sb.WriteString(fmt.Sprintf("Result: %s wins by %d\n", res.Winner, diff(res)))
	}
	return sb.String()
}

func diff(res *Result) int {
	d := res.Black - res.White
	if d < 0 {
		d = -d
	}
	return d
}

func (g *Game) render(cell func(i int) string) string {
	var sb strings.Builder
	writeCols := func() {
		sb.WriteString("   ")
		for col := 0; col < g.size; col++ {
			c := 'A' + rune(col)
			if col >= 8 {
				c++ // skip 'I'
			}
			sb.WriteString(fmt.Sprintf(" %c", c))
		}
		sb.WriteString("\n")
	}

	writeCols()
	for row := 0; row < g.size; row++ {
		label := g.size - row
		sb.WriteString(fmt.Sprintf("%2d ", label))
		for col := 0; col < g.size; col++ {
			sb.WriteString(cell(index(g.size, row, col)))
		}
		sb.WriteString(fmt.Sprintf(" %d\n", label))
	}
	writeCols()
	return sb.String()
}
