package solvers

import (
	"fmt"
	"strings"
)

// Scheme selects the time-integration rule applied to one term of the
// momentum equation. Each rule splits into explicit weights over the
// term's stored history, newest first, and an implicit weight on the
// unknown field inside the velocity system.
type Scheme uint16

const (
	EulerExplicit Scheme = iota
	EulerImplicit
	AdamsBashforth2
	CrankNicolson
)

// String returns the string representation of a Scheme
func (s Scheme) String() string {
	names := map[Scheme]string{
		EulerExplicit:   "EULER_EXPLICIT",
		EulerImplicit:   "EULER_IMPLICIT",
		AdamsBashforth2: "ADAMS_BASHFORTH_2",
		CrankNicolson:   "CRANK_NICOLSON",
	}
	if name, ok := names[s]; ok {
		return name
	}
	return "Unknown"
}

// SchemeNameMap maps scheme names to schemes. Keys are lowercase for
// case-insensitive matching.
var SchemeNameMap = map[string]Scheme{
	"euler_explicit":    EulerExplicit,
	"explicit":          EulerExplicit,
	"euler_implicit":    EulerImplicit,
	"implicit":          EulerImplicit,
	"adams_bashforth_2": AdamsBashforth2,
	"adams_bashforth2":  AdamsBashforth2,
	"crank_nicolson":    CrankNicolson,
}

// ParseScheme converts a scheme name to a Scheme.
func ParseScheme(name string) (Scheme, error) {
	lowerName := strings.ToLower(strings.TrimSpace(name))
	lowerName = strings.ReplaceAll(lowerName, "-", "_")
	if s, ok := SchemeNameMap[lowerName]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("solvers: unknown time scheme %q", name)
}

// Gamma returns the weights of the explicit history combination, newest
// first. An empty result means the scheme has no explicit part.
func (s Scheme) Gamma() []float64 {
	switch s {
	case EulerExplicit:
		return []float64{1}
	case AdamsBashforth2:
		return []float64{1.5, -0.5}
	case CrankNicolson:
		return []float64{0.5}
	}
	return nil
}

// ThetaImplicit returns the weight of the unknown field inside the
// velocity system.
func (s Scheme) ThetaImplicit() float64 {
	switch s {
	case EulerImplicit:
		return 1
	case CrankNicolson:
		return 0.5
	}
	return 0
}
