// Package fuzzy implements a small Mamdani inference engine: triangular
// membership terms over discretized universes, min/max rule combination with
// min-clip implication, and centroid defuzzification.
package fuzzy

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoActivation is returned when no rule fires for a set of inputs and the
// aggregated output region has zero mass, leaving the centroid undefined.
var ErrNoActivation = errors.New("fuzzy: no rule activation; crisp output undefined")

// Term is a triangular membership function with feet at A and C and apex at B.
// A == B or B == C produces a shoulder.
type Term struct {
	A, B, C float64
}

// Tri constructs a triangular term.
func Tri(a, b, c float64) Term {
	return Term{A: a, B: b, C: c}
}

// Membership evaluates the term at x.
func (t Term) Membership(x float64) float64 {
	switch {
	case x < t.A || x > t.C:
		return 0
	case x == t.B:
		return 1
	case x < t.B:
		return (x - t.A) / (t.B - t.A)
	default:
		return (t.C - x) / (t.C - t.B)
	}
}

// Variable is a linguistic variable: a bounded universe discretized at Step,
// with named triangular terms.
type Variable struct {
	Name  string
	Min   float64
	Max   float64
	Step  float64
	Terms map[string]Term
}

// Clamp bounds x to the variable's universe.
func (v Variable) Clamp(x float64) float64 {
	return math.Min(v.Max, math.Max(v.Min, x))
}

// Fuzzify computes the membership degree of x in each term, clamping x to the
// universe first so callers can never push a value out of range.
func (v Variable) Fuzzify(x float64) map[string]float64 {
	x = v.Clamp(x)
	degrees := make(map[string]float64, len(v.Terms))
	for name, term := range v.Terms {
		degrees[name] = term.Membership(x)
	}
	return degrees
}

// Degrees is the fuzzified state of all antecedent variables for one
// evaluation, keyed by variable name then term name.
type Degrees map[string]map[string]float64

// Of returns the membership degree of a variable's term, or 0 for unknown names.
func (d Degrees) Of(variable, term string) float64 {
	return d[variable][term]
}

// Rule pairs an antecedent expression with an output term. Strength computes
// the rule's firing level from the fuzzified inputs (AND = min, OR = max);
// the consequent term is clipped at that level.
type Rule struct {
	Strength   func(d Degrees) float64
	Consequent string
}

// System is an immutable Mamdani rule system. It holds no per-evaluation
// state, so a single instance may serve concurrent callers.
type System struct {
	inputs []Variable
	output Variable
	rules  []Rule
}

// NewSystem validates and assembles a rule system.
func NewSystem(inputs []Variable, output Variable, rules []Rule) (*System, error) {
	if output.Step <= 0 {
		return nil, fmt.Errorf("fuzzy: output variable %q needs a positive step", output.Name)
	}
	for _, r := range rules {
		if _, ok := output.Terms[r.Consequent]; !ok {
			return nil, fmt.Errorf("fuzzy: rule consequent %q not a term of %q", r.Consequent, output.Name)
		}
	}
	return &System{inputs: inputs, output: output, rules: rules}, nil
}

// Evaluate fuzzifies the crisp inputs (keyed by variable name), fires every
// rule, aggregates the clipped consequents by max, and returns the centroid
// of the aggregated region over the output universe.
func (s *System) Evaluate(crisp map[string]float64) (float64, error) {
	degrees := make(Degrees, len(s.inputs))
	for _, v := range s.inputs {
		x, ok := crisp[v.Name]
		if !ok {
			return 0, fmt.Errorf("fuzzy: missing input for variable %q", v.Name)
		}
		degrees[v.Name] = v.Fuzzify(x)
	}

	clips := make(map[string]float64, len(s.rules))
	for _, r := range s.rules {
		strength := r.Strength(degrees)
		if strength > clips[r.Consequent] {
			clips[r.Consequent] = strength
		}
	}

	return s.centroid(clips)
}

// centroid samples the aggregated membership region across the output
// universe and computes its center of mass.
func (s *System) centroid(clips map[string]float64) (float64, error) {
	var weighted, mass float64

	steps := int(math.Round((s.output.Max - s.output.Min) / s.output.Step))
	for i := 0; i <= steps; i++ {
		x := s.output.Min + float64(i)*s.output.Step

		mu := 0.0
		for name, clip := range clips {
			if clip == 0 {
				continue
			}
			m := math.Min(clip, s.output.Terms[name].Membership(x))
			if m > mu {
				mu = m
			}
		}

		weighted += x * mu
		mass += mu
	}

	if mass == 0 {
		return 0, ErrNoActivation
	}
	return weighted / mass, nil
}

// Max returns the larger of two firing strengths (fuzzy OR).
func Max(a, b float64) float64 {
	return math.Max(a, b)
}

// Min returns the smaller of two firing strengths (fuzzy AND).
func Min(a, b float64) float64 {
	return math.Min(a, b)
}
