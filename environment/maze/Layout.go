package maze

import (
	"fmt"
	"math"
	"strings"
)

// Point is a cell coordinate. X indexes columns and Y indexes rows,
// with (0, 0) in the top left corner.
type Point struct {
	X, Y int
}

// Add returns p translated by q
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Manhattan returns the L1 distance between p and q
func (p Point) Manhattan(q Point) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Cell is the contents of a single maze cell
type Cell uint8

const (
	Free Cell = iota
	Wall
	Trap
)

// Layout describes the static contents of a maze: its walls, traps,
// start and goal, and optionally a key which must be collected before
// the goal counts as reached.
type Layout struct {
	Width, Height int
	Start, Goal   Point

	key   *Point
	cells []Cell
}

// NewLayout returns an empty width x height Layout
func NewLayout(width, height int, start, goal Point) (*Layout, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("newLayout: dimensions must be positive, "+
			"have %dx%d", width, height)
	}

	l := &Layout{
		Width:  width,
		Height: height,
		Start:  start,
		Goal:   goal,
		cells:  make([]Cell, width*height),
	}
	if !l.In(start) {
		return nil, fmt.Errorf("newLayout: start %v out of bounds", start)
	}
	if !l.In(goal) {
		return nil, fmt.Errorf("newLayout: goal %v out of bounds", goal)
	}
	if start == goal {
		return nil, fmt.Errorf("newLayout: start and goal must differ")
	}

	return l, nil
}

// In returns whether p lies inside the maze
func (l *Layout) In(p Point) bool {
	return p.X >= 0 && p.X < l.Width && p.Y >= 0 && p.Y < l.Height
}

// At returns the contents of cell p. Cells outside the maze are walls.
func (l *Layout) At(p Point) Cell {
	if !l.In(p) {
		return Wall
	}
	return l.cells[p.Y*l.Width+p.X]
}

// Set sets the contents of cell p. The start and goal cannot be
// covered.
func (l *Layout) Set(p Point, c Cell) error {
	if !l.In(p) {
		return fmt.Errorf("set: %v out of bounds", p)
	}
	if c != Free && (p == l.Start || p == l.Goal || l.isKey(p)) {
		return fmt.Errorf("set: cannot place %v on %v", c, p)
	}
	l.cells[p.Y*l.Width+p.X] = c
	return nil
}

// SetKey places the key at p
func (l *Layout) SetKey(p Point) error {
	if !l.In(p) || l.At(p) != Free || p == l.Start || p == l.Goal {
		return fmt.Errorf("setKey: %v is not a free cell", p)
	}
	l.key = &p
	return nil
}

// Key returns the key position and whether the Layout has a key
func (l *Layout) Key() (Point, bool) {
	if l.key == nil {
		return Point{}, false
	}
	return *l.key, true
}

// Keyed returns whether the goal is locked behind a key
func (l *Layout) Keyed() bool {
	return l.key != nil
}

func (l *Layout) isKey(p Point) bool {
	return l.key != nil && *l.key == p
}

// Passable returns whether an agent may move into p. Traps are
// passable, they end the episode instead of blocking movement.
func (l *Layout) Passable(p Point) bool {
	return l.In(p) && l.At(p) != Wall
}

// Cells returns the positions of all cells with contents c in row
// major order
func (l *Layout) Cells(c Cell) []Point {
	var out []Point
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			if p := (Point{x, y}); l.At(p) == c {
				out = append(out, p)
			}
		}
	}
	return out
}

// Distance returns the length of the shortest path from from to to,
// or +Inf if no path exists. Paths never pass through walls or traps,
// and cells in through may end a path but are never passed through.
func (l *Layout) Distance(from, to Point, through ...Point) float64 {
	if from == to {
		return 0
	}

	dist := make([]int, len(l.cells))
	for i := range dist {
		dist[i] = -1
	}
	index := func(p Point) int { return p.Y*l.Width + p.X }

	dist[index(from)] = 0
	queue := []Point{from}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if p != from && (l.At(p) == Trap || contains(through, p)) {
			continue
		}

		for _, move := range moves {
			next := p.Add(move)
			if !l.Passable(next) || dist[index(next)] >= 0 {
				continue
			}

			dist[index(next)] = dist[index(p)] + 1
			if next == to {
				return float64(dist[index(next)])
			}
			queue = append(queue, next)
		}
	}

	return math.Inf(1)
}

// PathExists returns whether to can be reached from from
func (l *Layout) PathExists(from, to Point) bool {
	return !math.IsInf(l.Distance(from, to), 1)
}

// Solvable returns whether the goal can be reached from the start,
// collecting the key on the way if there is one
func (l *Layout) Solvable() bool {
	if key, ok := l.Key(); ok {
		return l.PathExists(l.Start, key) && l.PathExists(key, l.Goal)
	}
	return l.PathExists(l.Start, l.Goal)
}

func contains(points []Point, p Point) bool {
	for _, q := range points {
		if q == p {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the Layout
func (l *Layout) Clone() *Layout {
	out := *l
	out.cells = append([]Cell(nil), l.cells...)
	if l.key != nil {
		key := *l.key
		out.key = &key
	}
	return &out
}

// String draws the Layout with one character per cell: '.' free,
// '#' wall, 'T' trap, 'S' start, 'G' goal and 'K' key
func (l *Layout) String() string {
	return l.draw(nil)
}

func (l *Layout) draw(agent *Point) string {
	var b strings.Builder
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			p := Point{x, y}
			switch {
			case agent != nil && *agent == p:
				b.WriteByte('A')
			case p == l.Start:
				b.WriteByte('S')
			case p == l.Goal:
				b.WriteByte('G')
			case l.isKey(p):
				b.WriteByte('K')
			case l.At(p) == Wall:
				b.WriteByte('#')
			case l.At(p) == Trap:
				b.WriteByte('T')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseLayout parses a Layout drawn in the format produced by String.
// Rows must all have the same length and the drawing must contain
// exactly one start and one goal.
func ParseLayout(s string) (*Layout, error) {
	rows := strings.Fields(s)
	if len(rows) == 0 {
		return nil, fmt.Errorf("parseLayout: empty layout")
	}

	var start, goal, key []Point
	width := len(rows[0])
	cells := make([]Cell, 0, width*len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("parseLayout: row %d has length %d, "+
				"want %d", y, len(row), width)
		}

		for x, c := range row {
			cell := Free
			switch c {
			case '#':
				cell = Wall
			case 'T':
				cell = Trap
			case 'S':
				start = append(start, Point{x, y})
			case 'G':
				goal = append(goal, Point{x, y})
			case 'K':
				key = append(key, Point{x, y})
			case '.':
			default:
				return nil, fmt.Errorf("parseLayout: unknown cell %q at "+
					"(%d, %d)", c, x, y)
			}
			cells = append(cells, cell)
		}
	}

	if len(start) != 1 || len(goal) != 1 || len(key) > 1 {
		return nil, fmt.Errorf("parseLayout: want one start, one goal and "+
			"at most one key, have %d, %d and %d", len(start), len(goal),
			len(key))
	}

	l, err := NewLayout(width, len(rows), start[0], goal[0])
	if err != nil {
		return nil, fmt.Errorf("parseLayout: %w", err)
	}
	l.cells = cells
	if len(key) == 1 {
		l.key = &key[0]
	}
	return l, nil
}
