package nvidia

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// library abstracts the NVML entry points used by the source for testing
type library interface {
	Init() nvml.Return
	Shutdown() nvml.Return
	DeviceGetCount() (int, nvml.Return)
	DeviceGetHandleByIndex(index int) (nvml.Device, nvml.Return)
}

type nvmlLibrary struct{}

func (nvmlLibrary) Init() nvml.Return {
	return nvml.Init()
}

func (nvmlLibrary) Shutdown() nvml.Return {
	return nvml.Shutdown()
}

func (nvmlLibrary) DeviceGetCount() (int, nvml.Return) {
	return nvml.DeviceGetCount()
}

func (nvmlLibrary) DeviceGetHandleByIndex(index int) (nvml.Device, nvml.Return) {
	return nvml.DeviceGetHandleByIndex(index)
}
