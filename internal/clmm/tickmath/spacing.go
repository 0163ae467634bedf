package tickmath

import "fmt"

func floorToSpacing(tick, spacing int32) int32 {
	r := tick % spacing
	if r < 0 {
		r += spacing
	}
	return tick - r
}

// GetInitializableTickIndex rounds tick down to a multiple of spacing.
func GetInitializableTickIndex(tick, spacing int32) (int32, error) {
	if spacing <= 0 {
		return 0, ErrInvalidSpacing
	}
	return floorToSpacing(tick, spacing), nil
}

// GetPrevInitializableTickIndex returns the nearest multiple of spacing strictly below tick.
func GetPrevInitializableTickIndex(tick, spacing int32) (int32, error) {
	if spacing <= 0 {
		return 0, ErrInvalidSpacing
	}
	prev := floorToSpacing(tick, spacing)
	if prev == tick {
		prev -= spacing
	}
	if prev < MinTick {
		return 0, fmt.Errorf("%w: previous initializable tick %d below %d", ErrInvalidTick, prev, MinTick)
	}
	return prev, nil
}

// GetNextInitializableTickIndex returns the nearest multiple of spacing strictly above tick.
func GetNextInitializableTickIndex(tick, spacing int32) (int32, error) {
	if spacing <= 0 {
		return 0, ErrInvalidSpacing
	}
	next := floorToSpacing(tick, spacing) + spacing
	if next > MaxTick {
		return 0, fmt.Errorf("%w: next initializable tick %d above %d", ErrInvalidTick, next, MaxTick)
	}
	return next, nil
}

// MinUsableTick is the lowest tick a position with this spacing can use.
func MinUsableTick(spacing int32) int32 {
	return -(MaxTick / spacing) * spacing
}

// MaxUsableTick is the highest tick a position with this spacing can use.
func MaxUsableTick(spacing int32) int32 {
	return (MaxTick / spacing) * spacing
}

// ValidateTickRange checks ordering, alignment and protocol bounds of a position range.
func ValidateTickRange(lower, upper, spacing int32) error {
	if spacing <= 0 {
		return ErrInvalidSpacing
	}
	if lower >= upper {
		return fmt.Errorf("%w: lower %d >= upper %d", ErrInvalidTickRange, lower, upper)
	}
	if lower < MinTick || upper > MaxTick {
		return fmt.Errorf("%w: [%d, %d] outside protocol bounds", ErrInvalidTickRange, lower, upper)
	}
	if lower%spacing != 0 || upper%spacing != 0 {
		return fmt.Errorf("%w: [%d, %d] not aligned to spacing %d", ErrInvalidTickRange, lower, upper, spacing)
	}
	return nil
}
