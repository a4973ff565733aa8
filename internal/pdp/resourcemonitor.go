package pdp

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitor samples system memory and CPU load in the background and
// derives a safe upper bound on concurrent PDP workers, so a batch of
// detail-page scrapes backs off before it starves the host machine rather
// than after. Config values mirror the caller's own worker-pool budget, not
// a browser tab budget.
type ResourceMonitor struct {
	config ResourceMonitorConfig

	totalMemory uint64

	mu           sync.RWMutex
	lastAlloc    uint64
	lastCPUUsage float64

	cacheMu       sync.RWMutex
	cachedMaxJobs int
	lastCacheTime time.Time

	cancel context.CancelFunc
}

// ResourceMonitorConfig bounds the worker pool by memory and CPU headroom.
type ResourceMonitorConfig struct {
	SafetyReserveBytes int64 // memory always left untouched
	SafetyThresholdBytes int64 // below this available memory, scale to 1
	CPULoadThresholdPct  int  // >=100 disables the CPU check
	MaxConcurrency       int  // absolute ceiling regardless of headroom
	WorkerMemoryBytes    int64
}

// NewResourceMonitor builds a monitor with gopsutil's view of total system
// memory; it falls back to 4GiB if gopsutil can't read it.
func NewResourceMonitor(cfg ResourceMonitorConfig) *ResourceMonitor {
	if cfg.WorkerMemoryBytes == 0 {
		cfg.WorkerMemoryBytes = 150 * 1024 * 1024
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = runtime.NumCPU()
	}

	total := uint64(4 * 1024 * 1024 * 1024)
	if vm, err := mem.VirtualMemory(); err == nil {
		total = vm.Total
	}

	return &ResourceMonitor{config: cfg, totalMemory: total}
}

// Start launches the background sampling loop; cancel it with Stop.
func (rm *ResourceMonitor) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	rm.cancel = cancel
	go rm.loop(ctx, interval)
}

// Stop halts background sampling. Safe to call more than once.
func (rm *ResourceMonitor) Stop() {
	if rm.cancel != nil {
		rm.cancel()
	}
}

func (rm *ResourceMonitor) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rm.sample()
		}
	}
}

func (rm *ResourceMonitor) sample() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	pct, err := cpu.Percent(100*time.Millisecond, false)
	cpuUsage := 0.0
	if err == nil && len(pct) > 0 {
		cpuUsage = pct[0]
	}

	rm.mu.Lock()
	rm.lastAlloc = ms.Alloc
	rm.lastCPUUsage = cpuUsage
	rm.mu.Unlock()
}

// MaxWorkers returns the current recommended worker ceiling, cached for up
// to a second to avoid re-sampling CPU on every dispatch decision.
func (rm *ResourceMonitor) MaxWorkers() int {
	rm.cacheMu.RLock()
	if time.Since(rm.lastCacheTime) < time.Second && rm.cachedMaxJobs > 0 {
		cached := rm.cachedMaxJobs
		rm.cacheMu.RUnlock()
		return cached
	}
	rm.cacheMu.RUnlock()

	rm.mu.RLock()
	alloc := rm.lastAlloc
	cpuUsage := rm.lastCPUUsage
	rm.mu.RUnlock()

	available := int64(rm.totalMemory) - int64(alloc) - rm.config.SafetyReserveBytes

	byMemory := 1
	if available > rm.config.SafetyThresholdBytes {
		surplus := available - rm.config.SafetyThresholdBytes
		if n := int(surplus / rm.config.WorkerMemoryBytes); n > byMemory {
			byMemory = n
		}
	}

	result := min(byMemory, rm.config.MaxConcurrency)
	if rm.config.CPULoadThresholdPct > 0 && rm.config.CPULoadThresholdPct < 100 && cpuUsage > float64(rm.config.CPULoadThresholdPct) {
		result = 1
	}
	result = max(result, 1)

	rm.cacheMu.Lock()
	rm.cachedMaxJobs = result
	rm.lastCacheTime = time.Now()
	rm.cacheMu.Unlock()

	return result
}
