// Package hid opens HID devices and exchanges feature reports with them.
package hid

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no attached device matches.
var ErrNotFound = errors.New("hid device not found")

// Device is an opened HID device capable of feature report I/O. Data passed
// to WriteFeature and returned by ReadFeature excludes the report ID.
type Device interface {
	WriteFeature(reportID byte, data []byte) error
	ReadFeature(reportID byte) ([]byte, error)
	FeatureReportLength() int
	Close() error
}

// Info describes an attached HID device.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Product      string
	Manufacturer string
}

func (i Info) String() string {
	return fmt.Sprintf("%04x:%04x %s %s (%s)", i.VendorID, i.ProductID, i.Manufacturer, i.Product, i.Path)
}

// Manager enumerates and opens HID devices.
type Manager interface {
	List() ([]Info, error)
	Open(info Info) (Device, error)
	OpenVIDPID(vendorID, productID uint16) (Device, error)
}

// NewManager returns the OS-specific HID manager.
func NewManager() (Manager, error) {
	return newManager()
}

// Filter returns the entries of infos with the given vendor and product id.
func Filter(infos []Info, vendorID, productID uint16) []Info {
	var out []Info
	for _, i := range infos {
		if i.VendorID == vendorID && i.ProductID == productID {
			out = append(out, i)
		}
	}
	return out
}

func notFound(vendorID, productID uint16) error {
	return fmt.Errorf("%w (VID:0x%04X PID:0x%04X)", ErrNotFound, vendorID, productID)
}
