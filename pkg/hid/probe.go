package hid

import (
	"fmt"

	"github.com/karalabe/usb"
)

// ProbeEntry is a low-level view of one USB or HID interface.
type ProbeEntry struct {
	Info
	Interface int
	UsagePage uint16
	Usage     uint16
}

// ProbeResult is what the USB stack reports for a vendor/product pair.
type ProbeResult struct {
	VendorID  uint16
	ProductID uint16
	Matches   []ProbeEntry
	Others    int // devices with any other id
}

// Probe enumerates USB and HID interfaces independently of the HID manager,
// to explain why a controller could not be opened.
func Probe(vendorID, productID uint16) (ProbeResult, error) {
	res := ProbeResult{VendorID: vendorID, ProductID: productID}

	infos, err := usb.Enumerate(vendorID, productID)
	if err != nil {
		return res, fmt.Errorf("usb enumerate: %w", err)
	}
	for _, d := range infos {
		res.Matches = append(res.Matches, ProbeEntry{
			Info: Info{
				Path:         d.Path,
				VendorID:     d.VendorID,
				ProductID:    d.ProductID,
				Product:      d.Product,
				Manufacturer: d.Manufacturer,
			},
			Interface: d.Interface,
			UsagePage: d.UsagePage,
			Usage:     d.Usage,
		})
	}

	all, err := usb.Enumerate(0, 0)
	if err != nil {
		return res, fmt.Errorf("usb enumerate all: %w", err)
	}
	res.Others = len(all) - len(infos)
	return res, nil
}

// Hint summarizes the probe for an error message.
func (r ProbeResult) Hint() string {
	if len(r.Matches) == 0 {
		return fmt.Sprintf("no device with VID:0x%04X PID:0x%04X on the USB bus (%d other devices); profiles can only be transferred over USB, not Bluetooth",
			r.VendorID, r.ProductID, r.Others)
	}
	return fmt.Sprintf("%d matching interface(s) present but the HID device could not be opened; check device permissions",
		len(r.Matches))
}
