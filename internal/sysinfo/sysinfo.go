// Package sysinfo collects the host telemetry snapshot attached to
// heartbeat reports.
//
// Every probe degrades independently: a failed subsystem read is logged and
// reported as its zero value, never as a failed snapshot.
package sysinfo

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"

	"github.com/danmuck/probectl/internal/logging"
	"github.com/danmuck/probectl/internal/protocol"
)

// Report is the serialized heartbeat telemetry payload. Field names are
// part of the server contract.
type Report struct {
	Mount             []MountInfo       `json:"mount"`
	Network           NetworkInfo       `json:"network"`
	NetworkStatistics NetworkStatistics `json:"network_statistics"`
	Power             PowerInfo         `json:"power"`
	Memory            MemoryInfo        `json:"memory"`
	CPU               CPULoadInfo       `json:"cpu"`
	LoadAvg           LoadAvg           `json:"loadavg"`
	Uptime            uint64            `json:"uptime"`
	BootTime          string            `json:"boot_time"`
}

type MountInfo struct {
	MountFrom  string `json:"mount_from"`
	MountType  string `json:"mount_type"`
	MountOn    string `json:"mount_on"`
	MountAvail uint64 `json:"mount_avail"`
	MountTotal uint64 `json:"mount_total"`
}

type NetworkInfo struct {
	Interfaces map[string][]string `json:"interfaces"`
}

type InterfaceStatistics struct {
	RxBytes   uint64 `json:"rx_bytes"`
	TxBytes   uint64 `json:"tx_bytes"`
	RxPackets uint64 `json:"rx_packets"`
	TxPackets uint64 `json:"tx_packets"`
	RxErrors  uint64 `json:"rx_errors"`
	TxErrors  uint64 `json:"tx_errors"`
}

type NetworkStatistics struct {
	Interfaces map[string]InterfaceStatistics `json:"interfaces"`
}

type PowerInfo struct {
	HasBattery    bool    `json:"has_battery"`
	BatterySize   float64 `json:"battery_size"`
	RemainingTime uint64  `json:"remaining_time"`
	ConnectToAC   *bool   `json:"connect_to_ac"`
}

type MemoryInfo struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
}

type CPULoadInfo struct {
	User   float64 `json:"user"`
	System float64 `json:"system"`
	Idle   float64 `json:"idle"`
}

type LoadAvg struct {
	Last1  float64 `json:"last1"`
	Last5  float64 `json:"last5"`
	Last15 float64 `json:"last15"`
}

const defaultCPUSampleWindow = time.Second

// Collector gathers host telemetry. Safe to reuse across heartbeats.
type Collector struct {
	cpuSampleWindow time.Duration
}

func NewCollector() *Collector {
	return &Collector{cpuSampleWindow: defaultCPUSampleWindow}
}

// NewCollectorWithWindow overrides the CPU sampling window. Short windows
// keep tests fast.
func NewCollectorWithWindow(window time.Duration) *Collector {
	if window <= 0 {
		window = defaultCPUSampleWindow
	}
	return &Collector{cpuSampleWindow: window}
}

// RegisterInfo returns the registration body: hostname and boot time as
// epoch seconds.
func (c *Collector) RegisterInfo() (protocol.RegisterInfo, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return protocol.RegisterInfo{}, err
	}
	bootTime, err := host.BootTime()
	if err != nil {
		return protocol.RegisterInfo{}, err
	}
	return protocol.RegisterInfo{
		Hostname: hostname,
		BootTime: int64(bootTime),
	}, nil
}

// Snapshot collects a full telemetry report and serializes it to JSON.
func (c *Collector) Snapshot(ctx context.Context) (string, error) {
	report := Report{
		Mount:             c.collectMounts(ctx),
		Network:           c.collectNetwork(ctx),
		NetworkStatistics: c.collectNetworkStatistics(ctx),
		Power:             c.collectPower(),
		Memory:            c.collectMemory(ctx),
		LoadAvg:           c.collectLoadAvg(ctx),
	}

	cpuInfo, err := c.collectCPU(ctx)
	if err != nil {
		// Cancellation mid-sample is the only way CPU collection fails.
		return "", err
	}
	report.CPU = cpuInfo

	if uptime, err := host.UptimeWithContext(ctx); err != nil {
		logging.Errorf("sysinfo uptime failed err=%v", err)
	} else {
		report.Uptime = uptime
	}
	if bootTime, err := host.BootTimeWithContext(ctx); err != nil {
		logging.Errorf("sysinfo boot time failed err=%v", err)
	} else {
		report.BootTime = time.Unix(int64(bootTime), 0).UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func (c *Collector) collectMounts(ctx context.Context) []MountInfo {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		logging.Errorf("sysinfo mounts failed err=%v", err)
		return []MountInfo{}
	}
	mounts := make([]MountInfo, 0, len(partitions))
	for _, part := range partitions {
		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil {
			logging.Debugf("sysinfo mount usage failed mountpoint=%q err=%v", part.Mountpoint, err)
			continue
		}
		mounts = append(mounts, MountInfo{
			MountFrom:  part.Device,
			MountType:  part.Fstype,
			MountOn:    part.Mountpoint,
			MountAvail: usage.Free,
			MountTotal: usage.Total,
		})
	}
	return mounts
}

func (c *Collector) collectNetwork(ctx context.Context) NetworkInfo {
	info := NetworkInfo{Interfaces: map[string][]string{}}
	interfaces, err := gopsnet.InterfacesWithContext(ctx)
	if err != nil {
		logging.Errorf("sysinfo network interfaces failed err=%v", err)
		return info
	}
	for _, iface := range interfaces {
		addrs := make([]string, 0, len(iface.Addrs))
		for _, addr := range iface.Addrs {
			addrs = append(addrs, addr.Addr)
		}
		info.Interfaces[iface.Name] = addrs
	}
	return info
}

func (c *Collector) collectNetworkStatistics(ctx context.Context) NetworkStatistics {
	stats := NetworkStatistics{Interfaces: map[string]InterfaceStatistics{}}
	counters, err := gopsnet.IOCountersWithContext(ctx, true)
	if err != nil {
		logging.Errorf("sysinfo network statistics failed err=%v", err)
		return stats
	}
	for _, counter := range counters {
		stats.Interfaces[counter.Name] = InterfaceStatistics{
			RxBytes:   counter.BytesRecv,
			TxBytes:   counter.BytesSent,
			RxPackets: counter.PacketsRecv,
			TxPackets: counter.PacketsSent,
			RxErrors:  counter.Errin,
			TxErrors:  counter.Errout,
		}
	}
	return stats
}

func (c *Collector) collectPower() PowerInfo {
	batteries, err := battery.GetAll()
	if err != nil || len(batteries) == 0 {
		if err != nil {
			logging.Debugf("sysinfo battery probe failed err=%v", err)
		}
		return PowerInfo{}
	}

	bat := batteries[0]
	info := PowerInfo{HasBattery: true}
	if bat.Full > 0 {
		info.BatterySize = bat.Current / bat.Full * 100
	}
	if bat.State == battery.Discharging && bat.ChargeRate > 0 {
		info.RemainingTime = uint64(bat.Current / bat.ChargeRate * 3600)
	}
	switch bat.State {
	case battery.Charging, battery.Full:
		onAC := true
		info.ConnectToAC = &onAC
	case battery.Discharging, battery.Empty:
		onAC := false
		info.ConnectToAC = &onAC
	}
	return info
}

func (c *Collector) collectMemory(ctx context.Context) MemoryInfo {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		logging.Errorf("sysinfo memory failed err=%v", err)
		return MemoryInfo{}
	}
	return MemoryInfo{
		Used:  vm.Total - vm.Free,
		Total: vm.Total,
	}
}

func (c *Collector) collectLoadAvg(ctx context.Context) LoadAvg {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		logging.Errorf("sysinfo loadavg failed err=%v", err)
		return LoadAvg{}
	}
	return LoadAvg{Last1: avg.Load1, Last5: avg.Load5, Last15: avg.Load15}
}

// collectCPU derives user/system/idle percentages from two samples spaced
// by the collector's window.
func (c *Collector) collectCPU(ctx context.Context) (CPULoadInfo, error) {
	before, err := cpu.TimesWithContext(ctx, false)
	if err != nil || len(before) == 0 {
		logging.Errorf("sysinfo cpu sample failed err=%v", err)
		return CPULoadInfo{}, nil
	}

	timer := time.NewTimer(c.cpuSampleWindow)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return CPULoadInfo{}, ctx.Err()
	case <-timer.C:
	}

	after, err := cpu.TimesWithContext(ctx, false)
	if err != nil || len(after) == 0 {
		logging.Errorf("sysinfo cpu sample failed err=%v", err)
		return CPULoadInfo{}, nil
	}
	return cpuDelta(before[0], after[0]), nil
}

func cpuDelta(before, after cpu.TimesStat) CPULoadInfo {
	total := cpuTotal(after) - cpuTotal(before)
	if total <= 0 {
		return CPULoadInfo{}
	}
	return CPULoadInfo{
		User:   (after.User - before.User) / total * 100,
		System: (after.System - before.System) / total * 100,
		Idle:   (after.Idle - before.Idle) / total * 100,
	}
}

func cpuTotal(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq +
		t.Softirq + t.Steal + t.Guest + t.GuestNice
}
