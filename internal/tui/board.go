package tui

import (
	"strings"

	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/game"
	"github.com/lox/carrombot/internal/vec"
)

// Board cells are twice as wide as they are tall so the square board looks
// square in a terminal.
const (
	boardCols = 40
	boardRows = 20
)

type cell struct {
	glyph rune
	style func(string) string
}

// renderBoard draws the frame as a character grid: pockets, pieces, the
// striker and, while the opponent is thinking, its gaze.
func renderBoard(f game.Frame) string {
	g := f.Geometry
	if g.Size <= 0 {
		g = board.DefaultGeometry()
	}

	grid := make([][]cell, boardRows)
	for r := range grid {
		grid[r] = make([]cell, boardCols)
		for c := range grid[r] {
			grid[r][c] = cell{glyph: ' '}
		}
	}

	put := func(p vec.Vec2, glyph rune, style func(string) string) {
		r, c := project(g, p)
		grid[r][c] = cell{glyph: glyph, style: style}
	}

	for _, p := range g.Pockets() {
		put(p, 'O', PocketStyle.Render)
	}
	for _, y := range []float64{g.OpponentBaseline, g.HumanBaseline} {
		row, _ := project(g, vec.New(0, y))
		for c := colOf(g, g.LaunchLimit); c <= colOf(g, g.Size-g.LaunchLimit); c++ {
			if grid[row][c].glyph == ' ' {
				grid[row][c] = cell{glyph: '-', style: InfoStyle.Render}
			}
		}
	}
	for _, b := range f.Bodies {
		put(b.Position, glyph(b.Kind), kindStyle(b.Kind).Render)
	}
	if f.Thinking.InProgress {
		put(f.Thinking.Gaze, '+', GazeStyle.Render)
	}

	var sb strings.Builder
	for r, row := range grid {
		for _, c := range row {
			s := string(c.glyph)
			if c.style != nil {
				s = c.style(s)
			}
			sb.WriteString(s)
		}
		if r < len(grid)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func project(g board.Geometry, p vec.Vec2) (int, int) {
	row := int(p.Y / g.Size * boardRows)
	return clamp(row, 0, boardRows-1), colOf(g, p.X)
}

func colOf(g board.Geometry, x float64) int {
	return clamp(int(x/g.Size*boardCols), 0, boardCols-1)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func glyph(k board.Kind) rune {
	switch k {
	case board.Light:
		return 'o'
	case board.Dark:
		return 'x'
	case board.Queen:
		return 'Q'
	case board.Striker:
		return 'S'
	default:
		return '?'
	}
}
