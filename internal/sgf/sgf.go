// Package sgf reads and writes game records in SGF format and replays
// them through the rules engine.
package sgf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tayoshik/EnjoyGo/internal/engine"
)

// DefaultKomi is written to exported records. The engine scores by area
// without komi, so the value is informational.
const DefaultKomi = 7.5

// Record is a parsed game record: board size, game info, and the move
// sequence in play order.
type Record struct {
	Size  int
	Komi  float64
	Rules string
	Moves []engine.PlayedMove
}

// FromGame builds a record from a game's accepted-move log.
func FromGame(g *engine.Game) *Record {
	return &Record{
		Size:  g.Size(),
		Komi:  DefaultKomi,
		Rules: "Chinese",
		Moves: g.Record(),
	}
}

// Serialize renders the record as a single-variation SGF game tree.
func Serialize(r *Record) string {
	var sb strings.Builder
	sb.WriteString("(;FF[4]GM[1]")
	sb.WriteString(fmt.Sprintf("SZ[%d]", r.Size))
	sb.WriteString(fmt.Sprintf("KM[%s]", strconv.FormatFloat(r.Komi, 'f', -1, 64)))
	if r.Rules != "" {
		sb.WriteString(fmt.Sprintf("RU[%s]", r.Rules))
	}
	for _, m := range r.Moves {
		prop := "B"
		if m.Color == engine.White {
			prop = "W"
		}
		if m.Move.Pass {
			sb.WriteString(fmt.Sprintf(";%s[]", prop))
		} else {
			sb.WriteString(fmt.Sprintf(";%s[%s]", prop, encodeCoord(m.Move.Point)))
		}
	}
	sb.WriteString(")")
	return sb.String()
}

// Replay plays the record's moves through a fresh engine and returns the
// resulting game. It fails if a move is illegal or played out of turn, so
// a successful replay proves the record is a valid game.
func Replay(r *Record) (*engine.Game, error) {
	g, err := engine.New(r.Size)
	if err != nil {
		return nil, err
	}
	for i, m := range r.Moves {
		if m.Color != g.ToMove() {
			return nil, fmt.Errorf("move %d: %s played out of turn", i, m.Color)
		}
		if err := g.Apply(m.Move); err != nil {
			return nil, fmt.Errorf("move %d: %w", i, err)
		}
	}
	return g, nil
}

// Parse reads the first game tree from SGF text. Variations after the
// main line are skipped; setup stones (AB/AW) are rejected because they
// cannot be replayed as moves.
func Parse(content string) (*Record, error) {
	p := &parser{content: strings.TrimSpace(content)}
	return p.parse()
}

type parser struct {
	content string
	index   int
}

func (p *parser) parse() (*Record, error) {
	if !p.skipTo('(') {
		return nil, fmt.Errorf("invalid SGF: no opening parenthesis")
	}
	p.index++

	rec := &Record{
		Size: engine.DefaultBoardSize,
	}

	for p.index < len(p.content) {
		p.skipWhitespace()
		if p.index >= len(p.content) || p.content[p.index] == ')' {
			break
		}

		switch p.content[p.index] {
		case ';':
			p.index++
			if err := p.parseNode(rec); err != nil {
				return nil, err
			}
		case '(':
			p.skipVariation()
		default:
			p.index++
		}
	}

	return rec, nil
}

func (p *parser) parseNode(rec *Record) error {
	for p.index < len(p.content) {
		p.skipWhitespace()
		if p.index >= len(p.content) {
			break
		}
		if c := p.content[p.index]; c == ';' || c == ')' || c == '(' {
			break
		}

		prop, values, err := p.parseProperty()
		if err != nil {
			return err
		}

		switch prop {
		case "B", "W":
			color := engine.Black
			if prop == "W" {
				color = engine.White
			}
			move, err := decodeMove(values[0], rec.Size)
			if err != nil {
				return fmt.Errorf("property %s: %w", prop, err)
			}
			rec.Moves = append(rec.Moves, engine.PlayedMove{Color: color, Move: move})

		case "SZ":
			size, err := strconv.Atoi(values[0])
			if err != nil {
				return fmt.Errorf("invalid board size %q", values[0])
			}
			rec.Size = size

		case "KM":
			komi, err := strconv.ParseFloat(values[0], 64)
			if err != nil {
				return fmt.Errorf("invalid komi %q", values[0])
			}
			rec.Komi = komi

		case "RU":
			rec.Rules = values[0]

		case "AB", "AW":
			return fmt.Errorf("setup stones (%s) are not supported", prop)
		}
	}
	return nil
}

func (p *parser) parseProperty() (string, []string, error) {
	start := p.index
	for p.index < len(p.content) && p.content[p.index] >= 'A' && p.content[p.index] <= 'Z' {
		p.index++
	}
	if p.index == start {
		return "", nil, fmt.Errorf("expected property name at position %d", p.index)
	}
	prop := p.content[start:p.index]

	var values []string
	for p.index < len(p.content) {
		p.skipWhitespace()
		if p.index >= len(p.content) || p.content[p.index] != '[' {
			break
		}
		p.index++
		valueStart := p.index
		escaped := false
		for p.index < len(p.content) {
			if p.content[p.index] == '\\' && !escaped {
				escaped = true
			} else if p.content[p.index] == ']' && !escaped {
				break
			} else {
				escaped = false
			}
			p.index++
		}
		if p.index >= len(p.content) {
			return "", nil, fmt.Errorf("unclosed value for property %s", prop)
		}
		value := p.content[valueStart:p.index]
		value = strings.ReplaceAll(value, "\\]", "]")
		value = strings.ReplaceAll(value, "\\[", "[")
		value = strings.ReplaceAll(value, "\\\\", "\\")
		values = append(values, value)
		p.index++
	}

	if len(values) == 0 {
		return "", nil, fmt.Errorf("property %s has no value", prop)
	}
	return prop, values, nil
}

func (p *parser) skipWhitespace() {
	for p.index < len(p.content) {
		switch p.content[p.index] {
		case ' ', '\t', '\n', '\r':
			p.index++
		default:
			return
		}
	}
}

func (p *parser) skipTo(ch byte) bool {
	for p.index < len(p.content) {
		if p.content[p.index] == ch {
			return true
		}
		p.index++
	}
	return false
}

func (p *parser) skipVariation() {
	depth := 0
	for p.index < len(p.content) {
		switch p.content[p.index] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				p.index++
				return
			}
		}
		p.index++
	}
}

// encodeCoord renders a point in SGF letter-pair form: column then row,
// both counted from the top-left as 'a'.
func encodeCoord(pt engine.Point) string {
	return string([]byte{byte('a' + pt.Col), byte('a' + pt.Row)})
}

// decodeMove parses an SGF move value. An empty value is a pass, as is
// "tt" on boards of 19 or smaller.
func decodeMove(value string, size int) (engine.Move, error) {
	if value == "" || (value == "tt" && size <= 19) {
		return engine.PassMove, nil
	}
	if len(value) != 2 {
		return engine.Move{}, fmt.Errorf("invalid coordinate %q", value)
	}
	col := int(value[0] - 'a')
	row := int(value[1] - 'a')
	if col < 0 || col >= size || row < 0 || row >= size {
		return engine.Move{}, fmt.Errorf("coordinate %q off a %d×%d board", value, size, size)
	}
	return engine.MoveAt(row, col), nil
}
