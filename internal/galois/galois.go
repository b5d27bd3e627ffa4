// Package galois implements Reed-Solomon coding over GF(256), the error
// correction kernel shared by the sector codec and the outer ECC codec.
//
// The arithmetic and the encode/decode algorithms are a port of the
// classical Berlekamp-Massey/Forney implementation used by tape-codec
// drivers of this lineage: exponent/log tables built from a fixed
// generator polynomial, an in-place LFSR encoder, and an errors-and-
// erasures decoder built on syndromes, Berlekamp-Massey and Chien search.
package galois

import "errors"

const (
	mm       = 8
	nn       = 255
	// defaultPoly is x^8 + x^4 + x^3 + x^2 + 1, the field-generator
	// polynomial used whenever a codec isn't told otherwise.
	defaultPoly = 0x11D
	infinity    = nn
	// maxParity bounds the parity count a codec accepts.
	maxParity = 64
)

// Distinct decode failure modes. Unlike a single catch-all error these
// name exactly which stage of the errors-and-erasures algorithm gave up.
// The sector and outer group codecs in this module treat all three alike,
// as an uncorrectable block.
var (
	ErrDegenerateRoots = errors.New("galois: degenerate roots in error locator")
	ErrForney          = errors.New("galois: forney algorithm failed")
	ErrInvalidRoot     = errors.New("galois: error locator root out of range")
)

// field holds the GF(256) exponent/log tables for one generator polynomial.
type field struct {
	alphaExp [2 * nn]byte
	logAlpha [nn + 1]byte
}

func newField(poly int) *field {
	f := &field{}
	for i := 0; i < mm; i++ {
		f.alphaExp[i] = byte(1 << uint(i))
	}
	f.alphaExp[mm] = byte(poly & nn)
	for i := mm + 1; i < nn; i++ {
		prev := f.alphaExp[i-1]
		next := prev << 1
		if prev&(1<<(mm-1)) != 0 {
			next = (next & nn) ^ f.alphaExp[mm]
		}
		f.alphaExp[i] = next
	}
	copy(f.alphaExp[nn:], f.alphaExp[:nn])
	for i := 0; i < nn; i++ {
		f.logAlpha[f.alphaExp[i]] = byte(i)
	}
	f.logAlpha[0] = infinity
	return f
}

func modNN(x int) int {
	for x >= nn {
		x -= nn
		x = (x >> mm) + (x & nn)
	}
	return x
}

// Codec is a Reed-Solomon (n,k) code over GF(256): k data symbols,
// n-k parity symbols, built from the conventional (LOG_BETA=1, J0=1)
// generator. A zero-parity Codec is a valid no-op codec.
type Codec struct {
	n, k, parity   int
	remainderStart int
	g              []byte // generator polynomial coefficients, exponent form
	f              *field
}

// NewCodec builds an (n,k) Reed-Solomon codec using the default field
// generator polynomial. n must not exceed 255, k must not exceed n (k == n
// gives a zero-parity, no-op codec), and the parity count n-k must not
// exceed 64.
func NewCodec(n, k int) (*Codec, error) {
	return NewCodecWithPoly(n, k, defaultPoly)
}

// NewCodecWithPoly is NewCodec with an explicit field-generator polynomial.
func NewCodecWithPoly(n, k, poly int) (*Codec, error) {
	if n > nn || k > n || n-k > maxParity {
		return nil, errors.New("galois: invalid (n,k) for this field")
	}
	c := &Codec{n: n, k: k, parity: n - k}
	c.f = newField(poly)
	if c.parity > 0 {
		c.remainderStart = (n - 1) % c.parity
	}
	c.generatePoly()
	return c, nil
}

// N, K and Parity report the codeword geometry.
func (c *Codec) N() int      { return c.n }
func (c *Codec) K() int      { return c.k }
func (c *Codec) Parity() int { return c.parity }

func (c *Codec) generatePoly() {
	g := make([]byte, c.parity+1)
	g[0] = 1
	for i := 0; i < c.parity; i++ {
		g[i+1] = 1
		for j := i; j > 0; j-- {
			if g[j] != 0 {
				g[j] = g[j-1] ^ c.f.alphaExp[modNN(int(c.f.logAlpha[g[j]])+i+1)]
			} else {
				g[j] = g[j-1]
			}
		}
		g[0] = c.f.alphaExp[modNN(int(c.f.logAlpha[g[0]])+i+1)]
	}
	for i := range g {
		g[i] = c.f.logAlpha[g[i]]
	}
	c.g = g
}

// Encode computes the parity symbols for data, a slice of exactly K()
// data symbols, writing them into parity, a slice of exactly Parity()
// symbols. A zero-parity codec leaves parity untouched.
func (c *Codec) Encode(data, parity []byte) {
	if c.parity == 0 {
		return
	}
	if len(data) != c.k || len(parity) != c.parity {
		panic("galois: Encode: wrong slice length")
	}
	for i := range parity {
		parity[i] = 0
	}

	f := c.f
	b := c.remainderStart
	for d := c.k - 1; d >= 0; d-- {
		feedback := f.logAlpha[data[d]^parity[b]]
		if feedback != infinity {
			b--
			gi := c.parity - 1
			for ; b >= 0; gi, b = gi-1, b-1 {
				if c.g[gi] != infinity {
					parity[b] ^= f.alphaExp[int(feedback)+int(c.g[gi])]
				}
			}
			b = c.parity - 1
			for ; gi > 0; gi, b = gi-1, b-1 {
				if c.g[gi] != infinity {
					parity[b] ^= f.alphaExp[int(feedback)+int(c.g[gi])]
				}
			}
			if c.g[gi] != infinity {
				parity[b] = f.alphaExp[int(feedback)+int(c.g[gi])]
			} else {
				parity[b] = 0
			}
		} else {
			parity[b] = 0
		}
		b--
		if b < 0 {
			b = c.parity - 1
		}
	}
}

// Decode corrects data and parity in place using the given erasure
// locations (symbol indices into the logical codeword, parity first then
// data, matching Encode's layout). It returns the number of symbols
// corrected, or one of ErrDegenerateRoots, ErrForney or ErrInvalidRoot if
// the block could not be corrected within its parity budget.
func (c *Codec) Decode(data, parity []byte, erasures []int) (int, error) {
	if c.parity == 0 {
		return 0, nil
	}
	if len(data) != c.k || len(parity) != c.parity {
		panic("galois: Decode: wrong slice length")
	}
	f := c.f

	s := make([]int, c.parity)
	allZero := true
	for j := 0; j < c.parity; j++ {
		if parity[j] != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		for j := 0; j < c.k; j++ {
			if data[j] != 0 {
				allZero = false
				break
			}
		}
	}

	// Syndromes: evaluate the received block at beta^(1+i).
	synAlpha := make([]byte, c.parity)
	for i := range synAlpha {
		synAlpha[i] = parity[0]
	}
	for j := 1; j < c.parity; j++ {
		if parity[j] == 0 {
			continue
		}
		tmp := modNN(int(f.logAlpha[parity[j]]) + j)
		for x := 0; x < c.parity; x++ {
			synAlpha[x] ^= f.alphaExp[tmp]
			tmp += j
			if tmp >= nn {
				tmp -= nn
			}
		}
	}
	for j := c.parity; j < c.n; j++ {
		dv := data[j-c.parity]
		if dv == 0 {
			continue
		}
		tmp := modNN(int(f.logAlpha[dv]) + j)
		for x := 0; x < c.parity; x++ {
			synAlpha[x] ^= f.alphaExp[tmp]
			tmp += j
			if tmp >= nn {
				tmp -= nn
			}
		}
	}
	if allZero {
		return 0, nil
	}

	s2 := make([]int, c.parity)
	last := c.parity - 1
	for last >= 0 && synAlpha[last] == 0 {
		s2[last] = infinity
		last--
	}
	if last < 0 {
		return 0, nil
	}
	for x := last; x >= 0; x-- {
		s2[x] = int(f.logAlpha[synAlpha[x]])
	}
	s = s2

	noEras := len(erasures)

	// lambda is the error+erasure locator polynomial, kept in polynomial
	// (field-element) form while the Berlekamp-Massey recursion runs;
	// b is kept in exponent (log) form throughout, matching the source.
	lambda := make([]byte, c.parity+1)
	lambda[0] = 1
	if noEras > 0 {
		lambda[1] = f.alphaExp[modNN(erasures[0])]
		for i := 1; i < noEras; i++ {
			tmp := modNN(erasures[i])
			for y := i + 1; y > 0; y-- {
				if lambda[y-1] != 0 {
					lambda[y] ^= f.alphaExp[tmp+int(f.logAlpha[lambda[y-1]])]
				}
			}
		}
	}
	degLambda := noEras

	b := make([]int, c.parity+1)
	for i := c.parity; i > degLambda; i-- {
		b[i] = infinity
	}
	for i := degLambda; i >= 0; i-- {
		b[i] = int(f.logAlpha[lambda[i]])
	}

	temp := make([]byte, c.parity+1)
	for j := noEras; j < c.parity; j++ {
		discr := byte(0)
		for i := degLambda; i >= 0; i-- {
			if lambda[i] != 0 && s[j-i] != infinity {
				discr ^= f.alphaExp[int(f.logAlpha[lambda[i]])+s[j-i]]
			}
		}
		discrLog := int(f.logAlpha[discr])

		if discrLog == infinity {
			copy(b[1:], b[:c.parity])
			b[0] = infinity
			continue
		}

		for i := c.parity; i >= 1; i-- {
			if b[i-1] != infinity {
				temp[i] = lambda[i] ^ f.alphaExp[discrLog+b[i-1]]
			} else {
				temp[i] = lambda[i]
			}
		}
		temp[0] = lambda[0]

		if 2*degLambda <= j+noEras {
			degLambda = j + 1 + noEras - degLambda
			for i := c.parity; i >= 0; i-- {
				if lambda[i] != 0 {
					b[i] = modNN(nn - discrLog + int(f.logAlpha[lambda[i]]))
				} else {
					b[i] = infinity
				}
			}
		} else {
			copy(b[1:], b[:c.parity])
			b[0] = infinity
		}

		copy(lambda, temp[:c.parity+1])
	}

	// Convert lambda to log form in place for the Chien search below.
	lambdaLog := make([]int, c.parity+1)
	for i := c.parity; i > degLambda; i-- {
		lambdaLog[i] = infinity
	}
	for i := degLambda; i >= 0; i-- {
		lambdaLog[i] = int(f.logAlpha[lambda[i]])
	}

	// Chien search.
	root := make([]int, c.parity)
	loc := make([]int, c.parity)
	count := 0
	tempSearch := make([]int, degLambda+1)
	for i := 1; i <= degLambda; i++ {
		tempSearch[i] = lambdaLog[i]
	}
	for i := 1; i <= nn && count < degLambda; i++ {
		tmp := byte(1)
		for j, x := degLambda, degLambda; j > 0; x, j = x-1, j-1 {
			if tempSearch[x] != infinity {
				tempSearch[x] = modNN(tempSearch[x] + j)
				tmp ^= f.alphaExp[tempSearch[x]]
			}
		}
		if tmp != 0 {
			continue
		}
		root[count] = i
		loc[count] = nn - i
		if loc[count] >= c.n {
			return 0, ErrInvalidRoot
		}
		count++
	}

	if degLambda != count {
		return 0, ErrDegenerateRoots
	}

	// Error/erasure evaluator omega(x) = s(x)*lambda(x) mod x^parity.
	omega := make([]int, c.parity)
	for i := 0; i <= degLambda; i++ {
		if lambdaLog[i] == infinity {
			continue
		}
		for k := c.parity - 1; k-i >= 0; k-- {
			if s[k-i] != infinity {
				omega[k] ^= int(f.alphaExp[lambdaLog[i]+s[k-i]])
			}
		}
	}
	degOmega := -1
	omegaLog := make([]int, c.parity)
	for i := range omega {
		omegaLog[i] = infinity
	}
	for i := c.parity - 1; i >= 0; i-- {
		if omega[i] != 0 {
			degOmega = i
			break
		}
	}
	for i := 0; i <= degOmega; i++ {
		if omega[i] != 0 {
			omegaLog[i] = int(f.logAlpha[byte(omega[i])])
		}
	}

	derivDeg := degLambda
	if derivDeg > c.parity-1 {
		derivDeg = c.parity - 1
	}
	derivDeg &^= 1

	for l := count - 1; l >= 0; l-- {
		y := root[l]
		den := byte(0)
		tmp := derivDeg * y
		for x := derivDeg + 1; x >= 0; x -= 2 {
			if lambdaLog[x] != infinity {
				den ^= f.alphaExp[modNN(lambdaLog[x]+tmp)]
			}
			tmp -= y << 1
		}
		if den == 0 {
			return 0, ErrForney
		}
		num := 0
		tmp = 0
		for i := 0; i <= degOmega; i++ {
			if omegaLog[i] != infinity {
				num ^= int(f.alphaExp[omegaLog[i]+tmp])
			}
			tmp += y
			if tmp >= nn {
				tmp -= nn
			}
		}
		if num == 0 {
			continue
		}
		numLog := modNN(int(f.logAlpha[byte(num)]))
		magnitude := f.alphaExp[numLog+nn-int(f.logAlpha[den])]
		if loc[l] < c.parity {
			parity[loc[l]] ^= magnitude
		} else {
			data[loc[l]-c.parity] ^= magnitude
		}
	}

	return count, nil
}
