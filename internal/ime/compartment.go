package ime

import "uokeyboard/internal/host"

// readBool reads a compartment as a boolean. A compartment that is missing,
// empty or fails to read counts as false.
func (m *Ime) readBool(tm host.ThreadMgr, id host.GUID) bool {
	c, err := tm.Compartment(id)
	if err != nil {
		m.logger.Debug("read compartment", "compartment", id, "error", err)
		return false
	}
	v, err := c.Value()
	if err != nil {
		return false
	}
	return v != 0
}
