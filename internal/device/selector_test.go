package device

import (
	"testing"
)

func TestSelect_AutoPrefersCUDA(t *testing.T) {
	st, err := Select(Auto, StaticProber{"cpu", "mps", "cuda"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Active != CUDA {
		t.Errorf("expected cuda, got %s", st.Active)
	}
	if st.Precision != "fp16" {
		t.Errorf("expected fp16 on cuda, got %s", st.Precision)
	}
	if st.Degraded {
		t.Error("expected fresh state not degraded")
	}
}

func TestSelect_AutoFallsBackToMPSThenCPU(t *testing.T) {
	st, err := Select(Auto, StaticProber{"cpu", "mps"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Active != MPS {
		t.Errorf("expected mps, got %s", st.Active)
	}
	if st.Precision != "fp32" {
		t.Errorf("expected fp32 on mps, got %s", st.Precision)
	}

	st, err = Select(Auto, StaticProber{"cpu"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Active != CPU {
		t.Errorf("expected cpu, got %s", st.Active)
	}
}

func TestSelect_ExplicitRequestHonored(t *testing.T) {
	st, err := Select(MPS, StaticProber{"cpu", "mps", "cuda"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Active != MPS {
		t.Errorf("expected mps honored verbatim, got %s", st.Active)
	}
}

func TestSelect_UnavailableAcceleratorDowngradesToCPU(t *testing.T) {
	st, err := Select(CUDA, StaticProber{"cpu"})
	if err != nil {
		t.Fatalf("downgrade must not error, got: %v", err)
	}
	if st.Active != CPU {
		t.Errorf("expected cpu downgrade, got %s", st.Active)
	}
	if st.Requested != CUDA {
		t.Errorf("expected requested intent preserved, got %s", st.Requested)
	}
}

func TestSelect_UnknownDeviceIsError(t *testing.T) {
	if _, err := Select("tpu", StaticProber{"cpu"}); err == nil {
		t.Error("expected error for unknown device")
	}
}
