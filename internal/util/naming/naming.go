package naming

import (
	"fmt"
	"strings"
)

func Firewall(app string) string {
	return fmt.Sprintf("%s-firewall", app)
}

func Volume(app, source string) string {
	return fmt.Sprintf("%s-%s", app, DNSLabel(source))
}

func ConfigMap(app string) string {
	return fmt.Sprintf("%s-env", app)
}

func Secret(app string) string {
	return fmt.Sprintf("%s-secrets", app)
}

func Claim(source string) string {
	return DNSLabel(source)
}

func Container(app string) string {
	return fmt.Sprintf("%s-local", app)
}

// LocalVolume is the Docker volume backing a mount during local runs.
func LocalVolume(app, source string) string {
	return fmt.Sprintf("%s_%s", app, source)
}

// DNSLabel lowers s and replaces characters not allowed in a DNS-1123
// label with '-', trimming leading and trailing dashes.
func DNSLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > 63 {
		out = strings.TrimRight(out[:63], "-")
	}
	return out
}
