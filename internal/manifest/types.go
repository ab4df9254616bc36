package manifest

import "fmt"

// Signal is the signal the supervisor delivers to the process on shutdown.
type Signal string

const (
	// SignalINT is the interrupt signal.
	SignalINT Signal = "SIGINT"
	// SignalTERM is the termination signal.
	SignalTERM Signal = "SIGTERM"
	// SignalQUIT is the quit signal.
	SignalQUIT Signal = "SIGQUIT"
	// SignalUSR1 is user-defined signal 1.
	SignalUSR1 Signal = "SIGUSR1"
	// SignalUSR2 is user-defined signal 2.
	SignalUSR2 Signal = "SIGUSR2"
	// SignalKILL terminates the process immediately.
	SignalKILL Signal = "SIGKILL"
	// SignalSTOP stops the process.
	SignalSTOP Signal = "SIGSTOP"
)

// ValidSignals returns all signals accepted as kill_signal.
func ValidSignals() []Signal {
	return []Signal{SignalINT, SignalTERM, SignalQUIT, SignalUSR1, SignalUSR2, SignalKILL, SignalSTOP}
}

// IsValid returns true if the signal is supported by the supervisor.
func (s Signal) IsValid() bool {
	switch s {
	case SignalINT, SignalTERM, SignalQUIT, SignalUSR1, SignalUSR2, SignalKILL, SignalSTOP:
		return true
	default:
		return false
	}
}

// Graceful reports whether the process can trap the signal and shut down cleanly.
func (s Signal) Graceful() bool {
	return s.IsValid() && s != SignalKILL && s != SignalSTOP
}

// Handler is a protocol processor the edge applies to a port's traffic.
type Handler string

const (
	// HandlerHTTP parses HTTP/1.1 and HTTP/2 traffic.
	HandlerHTTP Handler = "http"
	// HandlerTLS terminates TLS.
	HandlerTLS Handler = "tls"
	// HandlerProxyProto prepends a PROXY protocol header.
	HandlerProxyProto Handler = "proxy_proto"
	// HandlerPGTLS terminates TLS for the PostgreSQL wire protocol.
	HandlerPGTLS Handler = "pg_tls"
)

// ValidHandlers returns all supported handlers.
func ValidHandlers() []Handler {
	return []Handler{HandlerHTTP, HandlerTLS, HandlerProxyProto, HandlerPGTLS}
}

// IsValid returns true if the handler is supported.
func (h Handler) IsValid() bool {
	switch h {
	case HandlerHTTP, HandlerTLS, HandlerProxyProto, HandlerPGTLS:
		return true
	default:
		return false
	}
}

// Protocol is the transport protocol of a service.
type Protocol string

const (
	// ProtocolTCP is the default service protocol.
	ProtocolTCP Protocol = "tcp"
	// ProtocolUDP is used for datagram services.
	ProtocolUDP Protocol = "udp"
)

// IsValid returns true if the protocol is supported.
func (p Protocol) IsValid() bool {
	return p == ProtocolTCP || p == ProtocolUDP
}

// ConcurrencyType selects what the edge counts against concurrency limits.
type ConcurrencyType string

const (
	// ConcurrencyConnections counts open connections.
	ConcurrencyConnections ConcurrencyType = "connections"
	// ConcurrencyRequests counts in-flight HTTP requests.
	ConcurrencyRequests ConcurrencyType = "requests"
)

// IsValid returns true if the concurrency type is supported.
func (c ConcurrencyType) IsValid() bool {
	return c == ConcurrencyConnections || c == ConcurrencyRequests
}

// Format is a serialisation format for manifests.
type Format string

const (
	// FormatTOML is the platform's native format.
	FormatTOML Format = "toml"
	// FormatYAML is YAML.
	FormatYAML Format = "yaml"
	// FormatJSON is JSON.
	FormatJSON Format = "json"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTOML, FormatYAML, FormatJSON:
		return Format(s), nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q: must be one of toml, yaml, json", s)
	}
}
