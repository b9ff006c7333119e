//go:build !windows

package keyclass

// NewOSReader returns the StateReader for the running platform. Off Windows
// there is no global key state to read, so the reader reports no modifiers
// and the US layout.
func NewOSReader() StateReader {
	return &StaticReader{Layout: USLayout}
}
