//go:build windows

package hid

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Feature reports go through hid.dll directly; enumeration uses SetupAPI.

var (
	hidDLL   = windows.NewLazySystemDLL("hid.dll")
	setupapi = windows.NewLazySystemDLL("setupapi.dll")

	procHidDGetHidGuid                   = hidDLL.NewProc("HidD_GetHidGuid")
	procHidDGetAttributes                = hidDLL.NewProc("HidD_GetAttributes")
	procHidDGetProductString             = hidDLL.NewProc("HidD_GetProductString")
	procHidDGetManufacturerString        = hidDLL.NewProc("HidD_GetManufacturerString")
	procHidDGetPreparsedData             = hidDLL.NewProc("HidD_GetPreparsedData")
	procHidDFreePreparsedData            = hidDLL.NewProc("HidD_FreePreparsedData")
	procHidPGetCaps                      = hidDLL.NewProc("HidP_GetCaps")
	procHidDSetFeature                   = hidDLL.NewProc("HidD_SetFeature")
	procHidDGetFeature                   = hidDLL.NewProc("HidD_GetFeature")
	procSetupDiGetClassDevsW             = setupapi.NewProc("SetupDiGetClassDevsW")
	procSetupDiEnumDeviceInterfaces      = setupapi.NewProc("SetupDiEnumDeviceInterfaces")
	procSetupDiGetDeviceInterfaceDetailW = setupapi.NewProc("SetupDiGetDeviceInterfaceDetailW")
	procSetupDiDestroyDeviceInfoList     = setupapi.NewProc("SetupDiDestroyDeviceInfoList")
)

const (
	digcfPresent         = 0x00000002
	digcfDeviceInterface = 0x00000010
	invalidHandleValue   = ^uintptr(0)
	hidpStatusSuccess    = 0x00110000
)

type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

type hiddAttributes struct {
	Size          uint32
	VendorID      uint16
	ProductID     uint16
	VersionNumber uint16
}

type spDeviceInterfaceData struct {
	CbSize             uint32
	InterfaceClassGuid guid
	Flags              uint32
	Reserved           uintptr
}

type spDeviceInterfaceDetailData struct {
	CbSize     uint32
	DevicePath [1]uint16 // variable length
}

type hidpCaps struct {
	Usage                     uint16
	UsagePage                 uint16
	InputReportByteLength     uint16
	OutputReportByteLength    uint16
	FeatureReportByteLength   uint16
	Reserved                  [17]uint16
	NumberLinkCollectionNodes uint16
	NumberInputButtonCaps     uint16
	NumberInputValueCaps      uint16
	NumberInputDataIndices    uint16
	NumberOutputButtonCaps    uint16
	NumberOutputValueCaps     uint16
	NumberOutputDataIndices   uint16
	NumberFeatureButtonCaps   uint16
	NumberFeatureValueCaps    uint16
	NumberFeatureDataIndices  uint16
}

type winManager struct{}

func newManager() (Manager, error) {
	return &winManager{}, nil
}

func (m *winManager) List() ([]Info, error) {
	var hidGUID guid
	procHidDGetHidGuid.Call(uintptr(unsafe.Pointer(&hidGUID)))

	devInfo, _, err := procSetupDiGetClassDevsW.Call(
		uintptr(unsafe.Pointer(&hidGUID)),
		0,
		0,
		digcfPresent|digcfDeviceInterface,
	)
	if devInfo == 0 || devInfo == invalidHandleValue {
		return nil, fmt.Errorf("SetupDiGetClassDevsW failed: %v", err)
	}
	defer procSetupDiDestroyDeviceInfoList.Call(devInfo)

	var devices []Info
	var ifaceData spDeviceInterfaceData
	ifaceData.CbSize = uint32(unsafe.Sizeof(ifaceData))

	for i := uint32(0); ; i++ {
		r, _, _ := procSetupDiEnumDeviceInterfaces.Call(
			devInfo,
			0,
			uintptr(unsafe.Pointer(&hidGUID)),
			uintptr(i),
			uintptr(unsafe.Pointer(&ifaceData)),
		)
		if r == 0 {
			break
		}
		path, ok := interfacePath(devInfo, &ifaceData)
		if !ok {
			continue
		}
		if info, ok := describe(path); ok {
			devices = append(devices, info)
		}
	}

	return devices, nil
}

func interfacePath(devInfo uintptr, ifaceData *spDeviceInterfaceData) (string, bool) {
	var requiredSize uint32
	procSetupDiGetDeviceInterfaceDetailW.Call(
		devInfo,
		uintptr(unsafe.Pointer(ifaceData)),
		0,
		0,
		uintptr(unsafe.Pointer(&requiredSize)),
		0,
	)
	if requiredSize == 0 {
		return "", false
	}

	buf := make([]byte, requiredSize)
	detail := (*spDeviceInterfaceDetailData)(unsafe.Pointer(&buf[0]))
	// cbSize is the fixed part of the struct, which differs between 32 and
	// 64 bit builds.
	if unsafe.Sizeof(uintptr(0)) == 8 {
		detail.CbSize = 8
	} else {
		detail.CbSize = 6
	}

	r, _, _ := procSetupDiGetDeviceInterfaceDetailW.Call(
		devInfo,
		uintptr(unsafe.Pointer(ifaceData)),
		uintptr(unsafe.Pointer(detail)),
		uintptr(requiredSize),
		0,
		0,
	)
	if r == 0 {
		return "", false
	}
	return windows.UTF16PtrToString(&detail.DevicePath[0]), true
}

// describe opens path without access rights to read its attributes.
func describe(path string) (Info, bool) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return Info{}, false
	}
	h, err := windows.CreateFile(
		pathPtr,
		0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return Info{}, false
	}
	defer windows.CloseHandle(h)

	var attrs hiddAttributes
	attrs.Size = uint32(unsafe.Sizeof(attrs))
	if r, _, _ := procHidDGetAttributes.Call(uintptr(h), uintptr(unsafe.Pointer(&attrs))); r == 0 {
		return Info{}, false
	}

	return Info{
		Path:         path,
		VendorID:     attrs.VendorID,
		ProductID:    attrs.ProductID,
		Manufacturer: hidString(procHidDGetManufacturerString, h),
		Product:      hidString(procHidDGetProductString, h),
	}, true
}

func hidString(proc *windows.LazyProc, h windows.Handle) string {
	buf := make([]uint16, 256)
	proc.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)*2))
	return windows.UTF16ToString(buf)
}

func (m *winManager) Open(info Info) (Device, error) {
	pathPtr, err := windows.UTF16PtrFromString(info.Path)
	if err != nil {
		return nil, err
	}

	h, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("CreateFile failed: %v", err)
	}

	var preparsed uintptr
	if r, _, _ := procHidDGetPreparsedData.Call(uintptr(h), uintptr(unsafe.Pointer(&preparsed))); r == 0 {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("HidD_GetPreparsedData failed")
	}

	var caps hidpCaps
	r, _, _ := procHidPGetCaps.Call(preparsed, uintptr(unsafe.Pointer(&caps)))
	procHidDFreePreparsedData.Call(preparsed)
	if r != hidpStatusSuccess {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("HidP_GetCaps failed: 0x%X", r)
	}

	return &winDevice{handle: h, featureLen: int(caps.FeatureReportByteLength)}, nil
}

func (m *winManager) OpenVIDPID(vendorID, productID uint16) (Device, error) {
	devs, err := m.List()
	if err != nil {
		return nil, err
	}
	matches := Filter(devs, vendorID, productID)
	if len(matches) == 0 {
		return nil, notFound(vendorID, productID)
	}
	// A composite device exposes one interface per top-level collection.
	// Only the one with feature reports is usable.
	var lastErr error
	for _, d := range matches {
		dev, err := m.Open(d)
		if err != nil {
			lastErr = err
			continue
		}
		if dev.FeatureReportLength() > 1 {
			return dev, nil
		}
		dev.Close()
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, notFound(vendorID, productID)
}

// winDevice buffers are featureLen bytes, which includes the report ID.
type winDevice struct {
	handle     windows.Handle
	featureLen int
}

func (d *winDevice) WriteFeature(reportID byte, data []byte) error {
	if len(data)+1 > d.featureLen {
		return fmt.Errorf("feature report 0x%02X: %d bytes exceeds report length %d", reportID, len(data), d.featureLen-1)
	}
	report := make([]byte, d.featureLen)
	report[0] = reportID
	copy(report[1:], data)

	r, _, err := procHidDSetFeature.Call(
		uintptr(d.handle),
		uintptr(unsafe.Pointer(&report[0])),
		uintptr(len(report)),
	)
	if r == 0 {
		return fmt.Errorf("HidD_SetFeature failed: %v", err)
	}
	return nil
}

func (d *winDevice) ReadFeature(reportID byte) ([]byte, error) {
	report := make([]byte, d.featureLen)
	report[0] = reportID

	r, _, err := procHidDGetFeature.Call(
		uintptr(d.handle),
		uintptr(unsafe.Pointer(&report[0])),
		uintptr(len(report)),
	)
	if r == 0 {
		return nil, fmt.Errorf("HidD_GetFeature failed: %v", err)
	}
	return report[1:], nil
}

func (d *winDevice) FeatureReportLength() int { return d.featureLen }

func (d *winDevice) Close() error {
	return windows.CloseHandle(d.handle)
}
