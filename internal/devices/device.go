// Package devices maintains a live view of connected Android devices.
// It layers parsing and property enrichment on top of the adb client's
// raw device-list snapshots and fans the result out to any number of
// subscribers.
package devices

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Device is one connected device with whatever identity the enrichment
// pass could learn about it. Every field except Serial may be empty.
type Device struct {
	Serial         string
	Model          string
	VendorModel    string
	Manufacturer   string
	AndroidVersion string
	AVDName        string
}

// DisplayName picks the friendliest available identity: an emulator's
// AVD name, then the marketing model, then the vendor model, then the
// bare serial.
func (d Device) DisplayName() string {
	if d.AVDName != "" {
		return d.AVDName
	}
	if d.Model != "" {
		return d.Model
	}
	if d.VendorModel != "" {
		return d.VendorModel
	}
	return d.Serial
}

// IsEmulator reports whether the device looks like a local emulator.
func (d Device) IsEmulator() bool {
	return d.AVDName != "" || strings.HasPrefix(d.Serial, "emulator-")
}

// listEntry is one usable line of a device-list snapshot.
type listEntry struct {
	serial    string
	modelHint string
}

// parseSnapshot extracts device entries from a normalized snapshot. The
// first line is the fixed header and is discarded; offline devices are
// dropped; duplicate serials keep their first occurrence. Each entry's
// serial is the line's first whitespace-separated token, and an inline
// model: token becomes a hint that later beats the queried property.
func parseSnapshot(snapshot string) []listEntry {
	lines := strings.Split(snapshot, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}

	var entries []listEntry
	seen := make(map[string]bool)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) > 1 && fields[1] == "offline" {
			continue
		}
		serial := fields[0]
		if seen[serial] {
			continue
		}
		seen[serial] = true

		entry := listEntry{serial: serial}
		for _, f := range fields[1:] {
			if v, ok := strings.CutPrefix(f, "model:"); ok {
				entry.modelHint = strings.TrimSpace(v)
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// identity is the property subset the enrichment pass cares about.
type identity struct {
	model        string
	vendorModel  string
	manufacturer string
	version      string
	avdName      string
}

// identityFromProps distills a raw property dump into an identity,
// applying the preference rules: vendor manufacturer over product
// manufacturer, and either qemu AVD key, with underscores turned into
// spaces since AVD names cannot contain them.
func identityFromProps(props map[string]string) identity {
	get := func(key string) string { return strings.TrimSpace(props[key]) }

	id := identity{
		model:        get("ro.product.model"),
		vendorModel:  get("ro.product.vendor.model"),
		manufacturer: get("ro.product.vendor.manufacturer"),
		version:      get("ro.build.version.release"),
	}
	if id.manufacturer == "" {
		id.manufacturer = get("ro.product.manufacturer")
	}
	avd := get("ro.boot.qemu.avd_name")
	if avd == "" {
		avd = get("ro.kernel.qemu.avd_name")
	}
	id.avdName = strings.ReplaceAll(avd, "_", " ")
	return id
}

// merge combines a snapshot entry with its enrichment into a Device.
// The inline model hint wins over the queried model when both exist.
func merge(entry listEntry, id identity) Device {
	model := entry.modelHint
	if model == "" {
		model = id.model
	}
	return Device{
		Serial:         entry.serial,
		Model:          model,
		VendorModel:    id.vendorModel,
		Manufacturer:   id.manufacturer,
		AndroidVersion: id.version,
		AVDName:        id.avdName,
	}
}

// resolveEntries enriches every entry concurrently through fetch and
// assembles the final device list in serial order. A failed fetch
// yields a zero identity, degrading that device to hint-only rather
// than dropping it.
func resolveEntries(ctx context.Context, fetch func(context.Context, string) identity, entries []listEntry) []Device {
	identities := make([]identity, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, serial string) {
			defer wg.Done()
			identities[i] = fetch(ctx, serial)
		}(i, entry.serial)
	}
	wg.Wait()

	devices := make([]Device, 0, len(entries))
	for i, entry := range entries {
		devices = append(devices, merge(entry, identities[i]))
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Serial < devices[j].Serial })
	return devices
}
