package devices

import (
	"testing"
)

func TestParseSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		snapshot string
		want     []listEntry
	}{
		{
			name:     "header only",
			snapshot: "List of devices attached\n",
			want:     nil,
		},
		{
			name: "single device with model hint",
			snapshot: "List of devices attached\n" +
				"emulator-5554          device product:sdk_gphone64_arm64 model:sdk_gphone64_arm64 device:emu64a transport_id:1\n",
			want: []listEntry{{serial: "emulator-5554", modelHint: "sdk_gphone64_arm64"}},
		},
		{
			name: "offline dropped",
			snapshot: "List of devices attached\n" +
				"28291FDH3000GV         device model:Pixel_7\n" +
				"emulator-5556          offline\n",
			want: []listEntry{{serial: "28291FDH3000GV", modelHint: "Pixel_7"}},
		},
		{
			name: "duplicate serial keeps first",
			snapshot: "List of devices attached\n" +
				"abc123 device model:first\n" +
				"abc123 device model:second\n",
			want: []listEntry{{serial: "abc123", modelHint: "first"}},
		},
		{
			name: "blank and whitespace lines skipped",
			snapshot: "List of devices attached\n" +
				"\n" +
				"   \n" +
				"serial-x device\n",
			want: []listEntry{{serial: "serial-x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSnapshot(tt.snapshot)
			if len(got) != len(tt.want) {
				t.Fatalf("parseSnapshot() = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIdentityFromProps(t *testing.T) {
	t.Run("vendor manufacturer preferred", func(t *testing.T) {
		id := identityFromProps(map[string]string{
			"ro.product.manufacturer":        "Google",
			"ro.product.vendor.manufacturer": "Google Vendor",
		})
		if id.manufacturer != "Google Vendor" {
			t.Errorf("manufacturer = %q, want vendor value", id.manufacturer)
		}
	})

	t.Run("product manufacturer fallback", func(t *testing.T) {
		id := identityFromProps(map[string]string{
			"ro.product.manufacturer": "Google",
		})
		if id.manufacturer != "Google" {
			t.Errorf("manufacturer = %q, want product value", id.manufacturer)
		}
	})

	t.Run("avd name underscores become spaces", func(t *testing.T) {
		id := identityFromProps(map[string]string{
			"ro.boot.qemu.avd_name": "Pixel_7_API_34",
		})
		if id.avdName != "Pixel 7 API 34" {
			t.Errorf("avdName = %q, want spaces", id.avdName)
		}
	})

	t.Run("kernel avd key fallback", func(t *testing.T) {
		id := identityFromProps(map[string]string{
			"ro.kernel.qemu.avd_name": "Old_Image",
		})
		if id.avdName != "Old Image" {
			t.Errorf("avdName = %q, want kernel key value", id.avdName)
		}
	})

	t.Run("values trimmed", func(t *testing.T) {
		id := identityFromProps(map[string]string{
			"ro.product.model": "  Pixel 7  ",
		})
		if id.model != "Pixel 7" {
			t.Errorf("model = %q, want trimmed", id.model)
		}
	})
}

func TestMerge_ModelHintWins(t *testing.T) {
	d := merge(
		listEntry{serial: "abc", modelHint: "hinted"},
		identity{model: "queried", version: "14"},
	)
	if d.Model != "hinted" {
		t.Errorf("Model = %q, want the inline hint", d.Model)
	}
	if d.AndroidVersion != "14" {
		t.Errorf("AndroidVersion = %q, want %q", d.AndroidVersion, "14")
	}

	d = merge(listEntry{serial: "abc"}, identity{model: "queried"})
	if d.Model != "queried" {
		t.Errorf("Model = %q, want queried value when no hint", d.Model)
	}
}

func TestDeviceDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		device Device
		want   string
	}{
		{"avd first", Device{Serial: "emulator-5554", Model: "sdk_gphone64", AVDName: "Pixel 7 API 34"}, "Pixel 7 API 34"},
		{"model next", Device{Serial: "28291FDH", Model: "Pixel 7"}, "Pixel 7"},
		{"vendor model next", Device{Serial: "28291FDH", VendorModel: "Pixel 7 Pro"}, "Pixel 7 Pro"},
		{"serial last", Device{Serial: "28291FDH"}, "28291FDH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceIsEmulator(t *testing.T) {
	if !(Device{Serial: "emulator-5554"}).IsEmulator() {
		t.Error("emulator serial not detected")
	}
	if !(Device{Serial: "x", AVDName: "Pixel 7"}).IsEmulator() {
		t.Error("AVD name not detected")
	}
	if (Device{Serial: "28291FDH"}).IsEmulator() {
		t.Error("physical device misdetected as emulator")
	}
}
