package sdxl

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// detectTimeout bounds the nvidia-smi probe so startup never hangs on a
// wedged driver.
const detectTimeout = 5 * time.Second

// DetectDevice probes for an NVIDIA GPU via nvidia-smi and returns the
// device pipelines should be placed on. Any probe failure (binary missing,
// driver error, no GPUs listed) selects the CPU.
func DetectDevice() Device {
	ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "nvidia-smi", "--query-gpu=name", "--format=csv,noheader")
	out, err := cmd.Output()
	if err != nil {
		return DeviceCPU
	}
	if strings.TrimSpace(string(out)) == "" {
		return DeviceCPU
	}
	return DeviceCUDA
}
