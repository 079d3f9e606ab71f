// Package device chooses the compute device for the speech engine and
// recovers from numeric instability by falling back to CPU.
package device

import (
	"fmt"

	"transcribe-ro/internal/observability/logging"
)

// Known devices.
const (
	Auto = "auto"
	CPU  = "cpu"
	CUDA = "cuda"
	MPS  = "mps"
)

// acceleratorPriority lists accelerators highest-throughput first.
var acceleratorPriority = []string{CUDA, MPS}

// Prober reports whether a device is available to the speech engine.
type Prober interface {
	Available(device string) bool
}

// StaticProber is a fixed set of available devices.
type StaticProber []string

// Available reports set membership.
func (p StaticProber) Available(device string) bool {
	for _, d := range p {
		if d == device {
			return true
		}
	}
	return false
}

// State is the per-run device state. It is an explicit value passed through
// the pipeline, never a process-wide singleton, so batch runs get a fresh
// state per file. Degraded transitions false to true at most once per run.
type State struct {
	Requested string
	Active    string
	Degraded  bool
	Precision string
}

// precisionFor matches the original fp16-on-CUDA behavior; MPS is fp32-only.
func precisionFor(device string) string {
	if device == CUDA {
		return "fp16"
	}
	return "fp32"
}

// Select picks the execution device for one run. In auto mode accelerators
// are tried in priority order and CPU is the fallback. An explicit request is
// honored verbatim, except that an unavailable accelerator downgrades to CPU
// with a warning, never an error. Unknown device names are a configuration
// error.
func Select(requested string, prober Prober) (*State, error) {
	log := logging.WithComponent("device")

	switch requested {
	case Auto:
		for _, d := range acceleratorPriority {
			if prober.Available(d) {
				log.Info().Str("device", d).Msg("Accelerator selected")
				return &State{Requested: requested, Active: d, Precision: precisionFor(d)}, nil
			}
		}
		log.Info().Msg("No accelerator available, using CPU")
		return &State{Requested: requested, Active: CPU, Precision: precisionFor(CPU)}, nil

	case CPU:
		return &State{Requested: requested, Active: CPU, Precision: precisionFor(CPU)}, nil

	case CUDA, MPS:
		if prober.Available(requested) {
			return &State{Requested: requested, Active: requested, Precision: precisionFor(requested)}, nil
		}
		log.Warn().
			Str("requested", requested).
			Msg("Requested accelerator unavailable, downgrading to CPU")
		return &State{Requested: requested, Active: CPU, Precision: precisionFor(CPU)}, nil

	default:
		return nil, fmt.Errorf("unknown device %q (expected auto, cpu, cuda or mps)", requested)
	}
}
