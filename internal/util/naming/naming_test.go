package naming

import (
	"strings"
	"testing"
)

func TestNamingFunctions(t *testing.T) {
	t.Parallel()
	app := "kzg-ceremony-sequencer"

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"Firewall", Firewall(app), "kzg-ceremony-sequencer-firewall"},
		{"Volume", Volume(app, "kzg_ceremony_data"), "kzg-ceremony-sequencer-kzg-ceremony-data"},
		{"ConfigMap", ConfigMap(app), "kzg-ceremony-sequencer-env"},
		{"Secret", Secret(app), "kzg-ceremony-sequencer-secrets"},
		{"Claim", Claim("kzg_ceremony_data"), "kzg-ceremony-data"},
		{"Container", Container(app), "kzg-ceremony-sequencer-local"},
		{"LocalVolume", LocalVolume(app, "data"), "kzg-ceremony-sequencer_data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.got)
			}
		})
	}
}

func TestDNSLabel(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"Data_Dir", "data-dir"},
		{"_leading", "leading"},
		{"already-valid", "already-valid"},
		{"dots.and/slash", "dots-and-slash"},
	}
	for _, tt := range tests {
		if got := DNSLabel(tt.in); got != tt.want {
			t.Errorf("DNSLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if long := DNSLabel(strings.Repeat("b", 80)); len(long) != 63 {
		t.Errorf("expected 63 characters, got %d", len(long))
	}
}
