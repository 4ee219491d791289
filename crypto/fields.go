package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// FieldOrder is the order of the BN254 scalar field, the arithmetic domain
// shared with the Groth16 proving system. Every protocol value is an element
// of this field.
var FieldOrder *big.Int

func init() {
	FieldOrder, _ = big.NewInt(0).SetString("21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)
}

// ErrDivisionByZero is returned when a field division is attempted with a
// divisor congruent to zero, for which no multiplicative inverse exists.
var ErrDivisionByZero = errors.New("field division by zero")

// Add returns (a + b) mod FieldOrder as a fresh value in [0, FieldOrder).
func Add(a, b *big.Int) *big.Int {
	sum := new(big.Int).Add(a, b)
	return sum.Mod(sum, FieldOrder)
}

// Sub returns (a - b) mod FieldOrder as a fresh value in [0, FieldOrder).
// The result is canonical even when a < b.
func Sub(a, b *big.Int) *big.Int {
	diff := new(big.Int).Sub(a, b)
	return diff.Mod(diff, FieldOrder)
}

// Mul returns (a * b) mod FieldOrder as a fresh value in [0, FieldOrder).
func Mul(a, b *big.Int) *big.Int {
	prod := new(big.Int).Mul(a, b)
	return prod.Mod(prod, FieldOrder)
}

// Div returns a * b⁻¹ mod FieldOrder. It fails with ErrDivisionByZero when
// b ≡ 0 mod FieldOrder.
func Div(a, b *big.Int) (*big.Int, error) {
	inv := new(big.Int).Mod(b, FieldOrder)
	if inv.Sign() == 0 {
		return nil, fmt.Errorf("%w: divisor %v", ErrDivisionByZero, b)
	}
	// FieldOrder is prime, so the inverse always exists for nonzero b.
	inv.ModInverse(inv, FieldOrder)
	return Mul(a, inv), nil
}

// Normalize maps any integer, negatives included, to its canonical
// representative in [0, FieldOrder).
func Normalize(a *big.Int) *big.Int {
	return new(big.Int).Mod(a, FieldOrder)
}

// RandomElement returns a uniformly sampled field element in [0, FieldOrder)
// using the operating system's entropy source.
func RandomElement() (*big.Int, error) {
	el, err := rand.Int(rand.Reader, FieldOrder)
	if err != nil {
		return nil, fmt.Errorf("sample field element: %w", err)
	}
	return el, nil
}
