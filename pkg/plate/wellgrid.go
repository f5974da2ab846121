// Package plate maps sequential sample indices onto microtiter plate coordinates.
package plate

import (
	"fmt"
	"strconv"
)

// Layout of a standard 96-well plate.
const (
	Rows     = 8
	Columns  = 12
	Capacity = Rows * Columns
)

const rowLetters = "ABCDEFGH"

// Order selects the traversal used to enumerate wells within a plate.
type Order string

const (
	// RowMajor enumerates A1..A12, B1..B12, ... (screening templates).
	RowMajor Order = "row_major"
	// ColumnMajor enumerates A1, B1, ..., H1, A2, ... (storage allocation).
	ColumnMajor Order = "column_major"
)

// Coordinate identifies a well on a numbered plate.
type Coordinate struct {
	Plate int    `json:"plate"`
	Well  string `json:"well"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%d:%s", c.Plate, c.Well)
}

// Assign returns the coordinate of the 1-based sequence index for a plate of
// the given capacity. A capacity <= 0 falls back to a full 96-well plate;
// capacities above 96 are rejected because labels come from the 8x12 layout.
func Assign(index, capacity int, order Order) (Coordinate, error) {
	if index < 1 {
		return Coordinate{}, fmt.Errorf("plate: sequence index %d must be >= 1", index)
	}
	if capacity <= 0 {
		capacity = Capacity
	}
	if capacity > Capacity {
		return Coordinate{}, fmt.Errorf("plate: capacity %d exceeds %d wells", capacity, Capacity)
	}
	plateNumber := (index + capacity - 1) / capacity
	position := ((index - 1) % capacity) + 1
	well, err := Label(position, order)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{Plate: plateNumber, Well: well}, nil
}

// MustAssign is Assign for callers that already validated the index.
func MustAssign(index int, order Order) Coordinate {
	c, err := Assign(index, Capacity, order)
	if err != nil {
		panic(err)
	}
	return c
}

// Label returns the well label for a 1-based position within one plate.
func Label(position int, order Order) (string, error) {
	if position < 1 || position > Capacity {
		return "", fmt.Errorf("plate: position %d outside 1..%d", position, Capacity)
	}
	p := position - 1
	var row, col int
	switch order {
	case RowMajor:
		row, col = p/Columns, p%Columns
	case ColumnMajor:
		row, col = p%Rows, p/Rows
	default:
		return "", fmt.Errorf("plate: unknown order %q", order)
	}
	return string(rowLetters[row]) + strconv.Itoa(col+1), nil
}

// Labels enumerates all 96 well labels in the given order.
func Labels(order Order) []string {
	out := make([]string, 0, Capacity)
	for i := 1; i <= Capacity; i++ {
		l, err := Label(i, order)
		if err != nil {
			return nil
		}
		out = append(out, l)
	}
	return out
}

// ValidWell reports whether label names a well of the 8x12 layout.
func ValidWell(label string) bool {
	if len(label) < 2 || len(label) > 3 {
		return false
	}
	row := label[0]
	if row < 'A' || row > 'H' {
		return false
	}
	col, err := strconv.Atoi(label[1:])
	if err != nil {
		return false
	}
	return col >= 1 && col <= Columns && strconv.Itoa(col) == label[1:]
}

// Position returns the row and column indices (0-based) of a well label.
func Position(label string) (row, col int, ok bool) {
	if !ValidWell(label) {
		return 0, 0, false
	}
	col, _ = strconv.Atoi(label[1:])
	return int(label[0] - 'A'), col - 1, true
}
