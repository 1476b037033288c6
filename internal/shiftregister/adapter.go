package shiftregister

// CoreOutput adapts a Driver to the controller's narrower output contract
// by discarding SetBit's ChangeKind return -- the controller derives its
// own on/off transitions by diffing active sets tick to tick, so it never
// needs the driver's internal change bookkeeping.
type CoreOutput struct {
	*Driver
}

// SetBit sets or clears a station's in-memory bit, dropping the ChangeKind.
func (c CoreOutput) SetBit(stationID int, on bool) error {
	_, err := c.Driver.SetBit(stationID, on)
	return err
}
