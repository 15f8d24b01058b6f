package flasher

import (
	"fmt"
	"time"
)

// ResetToBootloader drives the classic DTR/RTS auto-reset sequence:
// hold the chip in reset with the boot-select pin released, then
// release reset with boot-select held low. The chip wakes up in its
// serial bootloader.
func ResetToBootloader(rc ResetController) error {
	if err := rc.SetDTR(false); err != nil {
		return err
	}
	if err := rc.SetRTS(true); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)

	if err := rc.SetDTR(true); err != nil {
		return err
	}
	if err := rc.SetRTS(false); err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)

	return rc.SetDTR(false)
}

// HardReset pulses the reset line, restarting the chip into whatever
// is in flash.
func HardReset(rc ResetController) error {
	if err := rc.SetRTS(true); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	return rc.SetRTS(false)
}

// HardReset restarts the chip into the flashed application. The device
// must expose its modem lines via ResetController.
func (f *Flasher) HardReset() error {
	rc, ok := f.device.(ResetController)
	if !ok {
		return fmt.Errorf("device does not expose reset lines")
	}

	f.logInfo("hard resetting chip")
	return HardReset(rc)
}
