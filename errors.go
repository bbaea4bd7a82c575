package texpack

import "fmt"

// A FormatError reports that the source container is not valid.
type FormatError string

func (e FormatError) Error() string {
	return fmt.Sprintf("texpack: invalid format: %s", string(e))
}

// An UnsupportedError reports that the input uses a valid but
// unimplemented feature.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("texpack: unsupported feature: %s", string(e))
}

// An InputError reports a caller-fixable problem with a request: a missing
// image index, an out-of-range index or channel, or an unknown operation.
type InputError string

func (e InputError) Error() string {
	return fmt.Sprintf("texpack: invalid input: %s", string(e))
}

// An InternalError reports that an internal error was encountered.
type InternalError string

func (e InternalError) Error() string {
	return fmt.Sprintf("texpack: internal error: %s", string(e))
}

// minInt returns the smaller of x or y.
func minInt(a, b int) int {
	if a <= b {
		return a
	}
	return b
}

// clampByte clamps v to [0,255] and truncates to a byte.
func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
