package cart

import "fmt"

// InvalidHeaderError reports a cartridge image that is too short to carry a
// header, or whose type byte at 0x147 names no recognized cartridge family.
type InvalidHeaderError struct {
	Reason string
}

func (e *InvalidHeaderError) Error() string {
	return fmt.Sprintf("invalid cartridge header: %s", e.Reason)
}
