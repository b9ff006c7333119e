//go:build !windows

package passthrough

import "uokeyboard/internal/host"

// NewSystem returns ErrUnsupported outside Windows.
func NewSystem() (host.KeystrokeEmitter, error) {
	return nil, ErrUnsupported
}
