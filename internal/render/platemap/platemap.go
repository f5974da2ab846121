// Package platemap draws the 8x12 layout of a plate with the clone held in
// each well.
package platemap

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"clonetrack/pkg/domain"
	"clonetrack/pkg/plate"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1).Align(lipgloss.Center)
	emptyStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#2C4A54"))
	occupiedStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#2CD7C7"))
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
)

// EmptyWell marks a well without a clone.
const EmptyWell = "."

func location(c *domain.Clone, stage domain.Stage) (*domain.Location, error) {
	switch stage {
	case domain.StageStorage:
		return c.Storage, nil
	case domain.StageConjugation:
		return c.Conjugation, nil
	case domain.StageTransformation:
		return c.Agar, nil
	default:
		return nil, fmt.Errorf("platemap: stage %s has no plate layout", stage)
	}
}

// Plates lists the plate numbers used at stage, ascending.
func Plates(p *domain.Project, stage domain.Stage) ([]int, error) {
	seen := make(map[int]struct{})
	var out []int
	for _, c := range p.Clones() {
		loc, err := location(c, stage)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			continue
		}
		if _, ok := seen[loc.Plate]; !ok {
			seen[loc.Plate] = struct{}{}
			out = append(out, loc.Plate)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Grid returns an 8x12 matrix of clone identifiers for one plate. Wells
// outside the 96-well layout are ignored.
func Grid(p *domain.Project, stage domain.Stage, plateNumber int) ([][]string, error) {
	grid := make([][]string, plate.Rows)
	for r := range grid {
		grid[r] = make([]string, plate.Columns)
		for c := range grid[r] {
			grid[r][c] = EmptyWell
		}
	}
	for _, clone := range p.Clones() {
		loc, err := location(clone, stage)
		if err != nil {
			return nil, err
		}
		if loc == nil || loc.Plate != plateNumber {
			continue
		}
		r, c, ok := plate.Position(loc.Position)
		if !ok {
			continue
		}
		grid[r][c] = clone.ID
	}
	return grid, nil
}

// Render draws one plate as a bordered table titled with the project,
// stage and plate number.
func Render(p *domain.Project, stage domain.Stage, plateNumber int) (string, error) {
	grid, err := Grid(p, stage, plateNumber)
	if err != nil {
		return "", err
	}
	headers := make([]string, 0, plate.Columns+1)
	headers = append(headers, "")
	for c := 1; c <= plate.Columns; c++ {
		headers = append(headers, strconv.Itoa(c))
	}
	rows := make([][]string, 0, plate.Rows)
	for r, wells := range grid {
		rows = append(rows, append([]string{string(rune('A' + r))}, wells...))
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col == 0 {
				return headerStyle
			}
			if rows[row][col] == EmptyWell {
				return emptyStyle
			}
			return occupiedStyle
		})
	title := titleStyle.Render(fmt.Sprintf("%s %s plate %d", p.Name, stage, plateNumber))
	return lipgloss.JoinVertical(lipgloss.Left, title, t.Render()), nil
}
