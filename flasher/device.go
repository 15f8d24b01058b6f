package flasher

// ResetController is implemented by devices that expose the DTR and RTS
// modem lines. Development boards wire these lines to the chip's enable
// and boot-select pins, letting the flasher reset the chip into its
// serial bootloader without a button press.
type ResetController interface {
	// SetDTR sets the DTR line level
	SetDTR(bool) error

	// SetRTS sets the RTS line level
	SetRTS(bool) error
}

// BaudSetter is implemented by devices whose host-side baud rate can be
// changed after opening. ChangeBaud switches the chip first and the
// host right after.
type BaudSetter interface {
	// SetBaudrate reconfigures the device to the given rate
	SetBaudrate(rate int) error
}
