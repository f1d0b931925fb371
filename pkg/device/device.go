// Package device resolves an execution device for the inference backend.
//
// Resolution happens once at process or job start; the result is held as
// read-only state for the lifetime of the service or job run. Requesting an
// accelerator that the host does not have is never an error: the preference
// degrades silently to CPU so the system starts and serves everywhere.
package device

import (
	"os"
	"runtime"
	"strings"
)

// Preference is the requested execution device.
type Preference string

const (
	PreferenceAuto Preference = "auto"
	PreferenceCPU  Preference = "cpu"
	PreferenceCUDA Preference = "cuda"
	PreferenceMPS  Preference = "mps"
)

// Device is the effective execution device after resolution.
type Device string

const (
	CPU  Device = "cpu"
	CUDA Device = "cuda"
	MPS  Device = "mps"
)

// ParsePreference normalizes a device string. Unknown values resolve as
// auto: anything unrecognized means "pick for me".
func ParsePreference(s string) Preference {
	switch Preference(strings.ToLower(strings.TrimSpace(s))) {
	case PreferenceCPU:
		return PreferenceCPU
	case PreferenceCUDA:
		return PreferenceCUDA
	case PreferenceMPS:
		return PreferenceMPS
	default:
		return PreferenceAuto
	}
}

// Probe reports which accelerators the current host offers.
type Probe interface {
	HasCUDA() bool
	HasMPS() bool
}

// Resolve maps a preference to a usable device.
//
// Explicit cpu/cuda/mps preferences are honored unless they name an
// accelerator the probe cannot find, in which case the result is CPU. Auto
// prefers cuda, then mps, then cpu. Resolve never fails.
func Resolve(pref Preference, probe Probe) Device {
	switch pref {
	case PreferenceCPU:
		return CPU
	case PreferenceCUDA:
		if probe.HasCUDA() {
			return CUDA
		}
		return CPU
	case PreferenceMPS:
		if probe.HasMPS() {
			return MPS
		}
		return CPU
	default:
		if probe.HasCUDA() {
			return CUDA
		}
		if probe.HasMPS() {
			return MPS
		}
		return CPU
	}
}

// hostProbe checks host properties that are static for the process lifetime.
type hostProbe struct{}

// HasCUDA reports whether an NVIDIA driver is present on the host.
func (hostProbe) HasCUDA() bool {
	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		return true
	}
	// Containerized hosts expose devices without the proc entry.
	if _, err := os.Stat("/dev/nvidia0"); err == nil {
		return true
	}
	return false
}

// HasMPS reports whether Metal Performance Shaders are usable, which in
// practice means an Apple Silicon mac.
func (hostProbe) HasMPS() bool {
	return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64"
}

// DefaultProbe returns the host-backed probe used outside of tests.
func DefaultProbe() Probe {
	return hostProbe{}
}
