// Package rangeset computes the intersection of two arithmetic
// progressions, used by Managed Column slicing to dispatch a requested
// slice against each Page's covered index range without materializing
// either progression.
package rangeset

import "fmt"

// Range is a half-open arithmetic progression start, start+step, ...,
// stopping before Stop. Step must be positive; callers normalize negative
// strides before calling Intersect (spec §4.5: "negative strides are
// normalized by the caller").
type Range struct {
	Start, Stop, Step int
}

// Empty reports whether r contains no elements.
func (r Range) Empty() bool {
	return r.Step <= 0 || r.Start >= r.Stop
}

// Len returns the number of elements r contains.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return (r.Stop-1-r.Start)/r.Step + 1
}

var empty = Range{}

// Intersect returns the progression representing a ∩ b. Both a and b must
// have positive step; panics otherwise since that invariant is the
// caller's responsibility per spec §4.5.
func Intersect(a, b Range) Range {
	if a.Step <= 0 || b.Step <= 0 {
		panic(fmt.Sprintf("rangeset: Intersect requires positive strides, got %d and %d", a.Step, b.Step))
	}
	if a.Empty() || b.Empty() {
		return empty
	}

	// Last element each progression actually reaches (inclusive).
	aLast := a.Start + ((a.Stop-1-a.Start)/a.Step)*a.Step
	bLast := b.Start + ((b.Stop-1-b.Start)/b.Step)*b.Step

	// Step 1: bail out on non-overlap along the real line.
	loBound := max(a.Start, b.Start)
	hiBound := min(aLast, bLast)
	if loBound > hiBound {
		return empty
	}

	// Step 2: align loBound up to each lattice.
	alignedA := alignUp(a.Start, a.Step, loBound)
	alignedB := alignUp(b.Start, b.Step, loBound)

	if a.Step == 1 || b.Step == 1 {
		// Step 3: one progression covers every integer in its span, so the
		// intersection inherits the other's step.
		step := a.Step
		start := alignedB
		if a.Step == 1 {
			step = b.Step
			start = alignedB
		} else {
			step = a.Step
			start = alignedA
		}
		stop := hiBound + 1
		if start > hiBound {
			return empty
		}
		return Range{Start: start, Stop: stop, Step: step}
	}

	// Step 4: both progressions skip integers. The intersection, if
	// non-empty, is itself a progression with step lcm(as, bs); find the
	// smallest common value via the Chinese Remainder Theorem.
	g := gcd(a.Step, b.Step)
	diff := alignedB - alignedA
	if diff%g != 0 {
		return empty
	}
	l := lcm(a.Step, b.Step)

	// Solve alignedA + k*as ≡ alignedB (mod bs) for the smallest k >= 0,
	// i.e. k*as ≡ diff (mod bs).
	asOverG := a.Step / g
	bsOverG := b.Step / g
	diffOverG := diff / g
	inv := modInverse(asOverG%bsOverG, bsOverG)
	k := mod(diffOverG*inv, bsOverG)

	start := alignedA + k*a.Step
	if start < loBound {
		start += ((loBound - start + l - 1) / l) * l
	}
	if start > hiBound {
		return empty
	}
	return Range{Start: start, Stop: hiBound + 1, Step: l}
}

// alignUp returns the smallest value >= target that lies on the lattice
// {start, start+step, start+2*step, ...}.
func alignUp(start, step, target int) int {
	if target <= start {
		return start
	}
	n := (target - start + step - 1) / step
	return start + n*step
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// modInverse returns a^-1 mod m via the extended Euclidean algorithm.
// Assumes gcd(a, m) == 1, guaranteed by construction in Intersect (a and m
// are coprime after dividing out their gcd).
func modInverse(a, m int) int {
	if m == 1 {
		return 0
	}
	g, x, _ := extGCD(a, m)
	if g != 1 {
		return 0
	}
	return mod(x, m)
}

func extGCD(a, b int) (g, x, y int) {
	if b == 0 {
		return a, 1, 0
	}
	g, x1, y1 := extGCD(b, a%b)
	return g, y1, x1 - (a/b)*y1
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
