//go:build !windows

package hid

import (
	"fmt"

	usbhid "rafaelmartins.com/p/usbhid"
)

type usbManager struct{}

func newManager() (Manager, error) { return &usbManager{}, nil }

func infoOf(d *usbhid.Device) Info {
	return Info{
		Path:         d.Path(),
		VendorID:     d.VendorId(),
		ProductID:    d.ProductId(),
		Product:      d.Product(),
		Manufacturer: d.Manufacturer(),
	}
}

func (m *usbManager) List() ([]Info, error) {
	devs, err := usbhid.Enumerate(nil)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(devs))
	for _, d := range devs {
		out = append(out, infoOf(d))
	}
	return out, nil
}

func (m *usbManager) Open(info Info) (Device, error) {
	d, err := usbhid.Get(func(dev *usbhid.Device) bool {
		return dev.Path() == info.Path
	}, true, false)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.Path, err)
	}
	return &usbDevice{d}, nil
}

func (m *usbManager) OpenVIDPID(vendorID, productID uint16) (Device, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(Filter(infos, vendorID, productID)) == 0 {
		return nil, notFound(vendorID, productID)
	}

	d, err := usbhid.Get(func(dev *usbhid.Device) bool {
		return dev.VendorId() == vendorID && dev.ProductId() == productID
	}, true, false)
	if err != nil {
		return nil, fmt.Errorf("open %04x:%04x: %w", vendorID, productID, err)
	}
	return &usbDevice{d}, nil
}

type usbDevice struct{ d *usbhid.Device }

func (d *usbDevice) WriteFeature(reportID byte, data []byte) error {
	return d.d.SetFeatureReport(reportID, data)
}

func (d *usbDevice) ReadFeature(reportID byte) ([]byte, error) {
	return d.d.GetFeatureReport(reportID)
}

func (d *usbDevice) FeatureReportLength() int { return int(d.d.GetFeatureReportLength()) }

func (d *usbDevice) Close() error { return d.d.Close() }
