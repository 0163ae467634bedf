package mathutil

import (
	"errors"
	"fmt"
)

// ErrArithmeticOverflow is the kind every fixed-width failure in this package wraps.
var ErrArithmeticOverflow = errors.New("arithmetic overflow")

var (
	ErrMultiplicationOverflow  = fmt.Errorf("%w: multiplication overflow", ErrArithmeticOverflow)
	ErrDivideByZero            = fmt.Errorf("%w: divide by zero", ErrArithmeticOverflow)
	ErrIntegerDowncastOverflow = fmt.Errorf("%w: integer downcast overflow", ErrArithmeticOverflow)
	ErrSubtractionUnderflow    = fmt.Errorf("%w: subtraction underflow", ErrArithmeticOverflow)
	ErrNegativeValue           = fmt.Errorf("%w: negative value for unsigned type", ErrArithmeticOverflow)
)
