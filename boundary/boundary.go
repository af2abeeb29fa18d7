package boundary

import (
	"fmt"
	"strings"
)

// Kind represents the condition type applied to a velocity component on one
// domain side.
type Kind uint16

const (
	// Dirichlet prescribes the velocity value on the boundary.
	Dirichlet Kind = iota
	// Neumann prescribes the outward normal derivative of the velocity.
	Neumann
)

// String returns the string representation of a Kind
func (k Kind) String() string {
	names := map[Kind]string{
		Dirichlet: "Dirichlet",
		Neumann:   "Neumann",
	}
	if name, ok := names[k]; ok {
		return name
	}
	return "Unknown"
}

// KindNameMap maps condition names to kinds. Keys are lowercase for
// case-insensitive matching.
var KindNameMap = map[string]Kind{
	"dirichlet": Dirichlet,
	"wall":      Dirichlet,
	"no_slip":   Dirichlet,
	"noslip":    Dirichlet,
	"neumann":   Neumann,
	"outlet":    Neumann,
	"outflow":   Neumann,
}

// ParseKind converts a condition name to a Kind.
func ParseKind(name string) (Kind, error) {
	lowerName := strings.ToLower(strings.TrimSpace(name))
	if k, ok := KindNameMap[lowerName]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("boundary: unknown condition type %q", name)
}

// Side identifies one face of the domain box.
type Side uint16

const (
	XMin Side = iota
	XMax
	YMin
	YMax
	ZMin
	ZMax
)

// String returns the string representation of a Side
func (s Side) String() string {
	names := map[Side]string{
		XMin: "xMinus",
		XMax: "xPlus",
		YMin: "yMinus",
		YMax: "yPlus",
		ZMin: "zMinus",
		ZMax: "zPlus",
	}
	if name, ok := names[s]; ok {
		return name
	}
	return "Unknown"
}

// SideOf returns the side on axis a, max or min.
func SideOf(a int, max bool) Side {
	s := Side(2 * a)
	if max {
		s++
	}
	return s
}

// Condition holds the kind and per-component values prescribed on one side.
// For Dirichlet the values are velocities on the boundary; for Neumann they
// are outward normal derivatives.
type Condition struct {
	Kind   Kind
	Values [3]float64
}

// Set is the complete boundary specification of a simulation: one condition
// per domain side, fixed at setup.
type Set struct {
	Dim   int
	Conds [6]Condition
}

// New builds a Set from per-side conditions. conds must cover exactly the
// 2*dim sides of the domain.
func New(dim int, conds map[Side]Condition) (*Set, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("boundary: dimension %d", dim)
	}
	s := &Set{Dim: dim}
	for a := 0; a < dim; a++ {
		for _, max := range []bool{false, true} {
			side := SideOf(a, max)
			c, ok := conds[side]
			if !ok {
				return nil, fmt.Errorf("boundary: side %v not specified", side)
			}
			s.Conds[side] = c
		}
	}
	for side := range conds {
		if int(side) >= 2*dim {
			return nil, fmt.Errorf("boundary: side %v outside a %dD domain", side, dim)
		}
	}
	return s, nil
}

// At returns the condition on a side.
func (s *Set) At(side Side) Condition { return s.Conds[side] }

// Value returns the kind and prescribed value for component c on the
// side of axis a.
func (s *Set) Value(a int, max bool, c int) (Kind, float64) {
	cond := s.Conds[SideOf(a, max)]
	return cond.Kind, cond.Values[c]
}
