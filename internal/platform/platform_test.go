// SPDX-License-Identifier: MPL-2.0

package platform

import "testing"

func fakeEnv(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestIsTermux(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{
			name: "termux version set",
			env:  map[string]string{"TERMUX_VERSION": "0.118.0"},
			want: true,
		},
		{
			name: "termux prefix only",
			env:  map[string]string{"PREFIX": "/data/data/com.termux/files/usr"},
			want: true,
		},
		{
			name: "plain linux",
			env:  map[string]string{"HOME": "/home/user"},
			want: false,
		},
		{
			name: "unrelated prefix",
			env:  map[string]string{"PREFIX": "/opt/something"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restore := SetEnvFuncForTest(fakeEnv(tt.env))
			defer restore()

			if got := IsTermux(); got != tt.want {
				t.Errorf("IsTermux() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrefix(t *testing.T) {
	t.Run("termux prefix from env", func(t *testing.T) {
		restore := SetEnvFuncForTest(fakeEnv(map[string]string{
			"PREFIX": "/data/data/com.termux/files/usr",
		}))
		defer restore()

		if got := Prefix(); got != "/data/data/com.termux/files/usr" {
			t.Errorf("Prefix() = %q", got)
		}
	})

	t.Run("termux without PREFIX falls back to canonical path", func(t *testing.T) {
		restore := SetEnvFuncForTest(fakeEnv(map[string]string{
			"TERMUX_VERSION": "0.118.0",
		}))
		defer restore()

		if got := Prefix(); got != defaultTermuxPrefix {
			t.Errorf("Prefix() = %q, want %q", got, defaultTermuxPrefix)
		}
	})

	t.Run("plain linux", func(t *testing.T) {
		restore := SetEnvFuncForTest(fakeEnv(map[string]string{}))
		defer restore()

		if got := Prefix(); got != "/usr" {
			t.Errorf("Prefix() = %q, want /usr", got)
		}
	})
}

func TestEtcDir(t *testing.T) {
	restore := SetEnvFuncForTest(fakeEnv(map[string]string{
		"PREFIX": "/data/data/com.termux/files/usr",
	}))
	defer restore()

	want := "/data/data/com.termux/files/usr/etc"
	if got := EtcDir(); got != want {
		t.Errorf("EtcDir() = %q, want %q", got, want)
	}
}

func TestGoarchFallback(t *testing.T) {
	tests := []struct {
		goarch string
		want   string
	}{
		{"arm64", "aarch64"},
		{"amd64", "x86_64"},
		{"arm", "armv7l"},
		{"386", "i686"},
		{"riscv64", "riscv64"},
	}

	for _, tt := range tests {
		if got := goarchFallback(tt.goarch); got != tt.want {
			t.Errorf("goarchFallback(%q) = %q, want %q", tt.goarch, got, tt.want)
		}
	}
}

func TestMachineArch(t *testing.T) {
	if MachineArch() == "" {
		t.Error("MachineArch() returned empty string")
	}
}
