package components

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/mealspin/internal/engine/geo"
	"github.com/rendis/mealspin/internal/model"
	"github.com/rendis/mealspin/internal/tui/styles"
)

// DiscView plots the search disc and the venues found so far using Braille
// characters. Ring and sector boundaries come from the partitioner, so the
// picture matches the regions being queried.
type DiscView struct {
	width    int
	height   int
	center   model.GeoPoint
	radius   float64 // meters
	sectors  int
	rings    int
	points   []model.GeoPoint
	selected int // index into points, -1 if none
}

func NewDiscView(width, height int) DiscView {
	return DiscView{width: width, height: height, selected: -1}
}

func (d *DiscView) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// SetDisc sets the search area drawn as the background.
func (d *DiscView) SetDisc(center model.GeoPoint, radius float64, sectors, rings int) {
	d.center = center
	d.radius = radius
	d.sectors = sectors
	d.rings = rings
}

func (d *DiscView) SetPoints(points []model.GeoPoint) {
	d.points = points
}

func (d *DiscView) AddPoints(points ...model.GeoPoint) {
	d.points = append(d.points, points...)
}

func (d *DiscView) SetSelected(idx int) {
	d.selected = idx
}

func (d DiscView) Len() int { return len(d.points) }

// Braille character encoding:
// Each braille char is a 2x4 dot grid.
// Dot positions:  0 3
//
//	1 4
//	2 5
//	6 7
//
// Unicode: 0x2800 + sum of raised dot bits
var brailleDots = [8]rune{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80}

var dotPositions = [8][2]int{
	{0, 0}, {1, 0}, {2, 0}, {0, 1},
	{1, 1}, {2, 1}, {3, 0}, {3, 1},
}

const arcSteps = 72

func (d DiscView) View() string {
	if d.width <= 0 || d.height <= 0 {
		return ""
	}

	dotW := d.width * 2
	dotH := d.height * 4
	if d.radius <= 0 {
		return strings.Repeat(strings.Repeat(" ", d.width)+"\n", d.height-1) + strings.Repeat(" ", d.width)
	}

	// Braille dots are roughly square on screen, so one scale serves both axes.
	scale := float64(min(dotW, dotH)-1) / (2 * d.radius * 1.05)
	cx, cy := dotW/2, dotH/2
	cosLat := math.Cos(d.center.Lat * math.Pi / 180)

	toDot := func(p model.GeoPoint) (int, int) {
		east := (p.Lng - d.center.Lng) * geo.MetersPerDegree * cosLat
		north := (p.Lat - d.center.Lat) * geo.MetersPerDegree
		return cx + int(math.Round(east*scale)), cy - int(math.Round(north*scale))
	}

	gridLines := newGrid(dotW, dotH)
	gridPoints := newGrid(dotW, dotH)
	gridSelected := newGrid(dotW, dotH)

	// Ring boundaries and sector spokes
	for _, r := range geo.Partition(d.center, d.radius, max(d.sectors, 1), max(d.rings, 1)) {
		if r.Sector == 0 {
			var px, py int
			for i := 0; i <= arcSteps; i++ {
				theta := float64(i) * 2 * math.Pi / arcSteps
				x, y := toDot(geo.Offset(d.center, r.OuterRadius*math.Cos(theta), r.OuterRadius*math.Sin(theta)))
				if i > 0 {
					drawLine(gridLines, px, py, x, y)
				}
				px, py = x, y
			}
		}
		if d.sectors > 1 && r.Ring == d.rings-1 {
			theta := r.StartAngle * math.Pi / 180
			x0, y0 := toDot(d.center)
			x1, y1 := toDot(geo.Offset(d.center, r.OuterRadius*math.Cos(theta), r.OuterRadius*math.Sin(theta)))
			drawLine(gridLines, x0, y0, x1, y1)
		}
	}

	for i, p := range d.points {
		x, y := toDot(p)
		if i == d.selected {
			gridSelected.set(x, y)
			gridSelected.set(x+1, y)
			gridSelected.set(x, y+1)
			gridSelected.set(x+1, y+1)
			continue
		}
		gridPoints.set(x, y)
	}

	lineStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	pointStyle := lipgloss.NewStyle().Foreground(styles.Success)
	selStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)

	var sb strings.Builder
	for row := 0; row < d.height; row++ {
		for col := 0; col < d.width; col++ {
			sel, pt, ln := gridSelected.cell(row, col), gridPoints.cell(row, col), gridLines.cell(row, col)
			switch {
			case sel != 0x2800:
				sb.WriteString(selStyle.Render(string(sel | pt)))
			case pt != 0x2800:
				sb.WriteString(pointStyle.Render(string(pt)))
			case ln != 0x2800:
				sb.WriteString(lineStyle.Render(string(ln)))
			default:
				sb.WriteRune(' ')
			}
		}
		if row < d.height-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

type dotGrid struct {
	w, h int
	dots [][]bool
}

func newGrid(w, h int) dotGrid {
	dots := make([][]bool, h)
	for i := range dots {
		dots[i] = make([]bool, w)
	}
	return dotGrid{w: w, h: h, dots: dots}
}

func (g dotGrid) set(x, y int) {
	if x >= 0 && x < g.w && y >= 0 && y < g.h {
		g.dots[y][x] = true
	}
}

// cell returns the braille rune for the character at (row, col).
func (g dotGrid) cell(row, col int) rune {
	var r rune = 0x2800
	for dot := range 8 {
		dy := row*4 + dotPositions[dot][0]
		dx := col*2 + dotPositions[dot][1]
		if dy < g.h && dx < g.w && g.dots[dy][dx] {
			r |= brailleDots[dot]
		}
	}
	return r
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(g dotGrid, x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	for {
		g.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
