package graph

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Client defines the minimal contract the graph session needs from the
// underlying database driver. Implementations must be safe for concurrent use.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result is a simplified representation of a query response.
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// Options configures a graph client implementation.
type Options struct {
	// Endpoints are tried in order until one accepts a connection. An
	// endpoint is either a bare host or a full URI such as bolt://host:7687.
	Endpoints      []string
	Port           int
	Database       string
	Username       string
	Password       string
	MaxConnections int
	ConnectTimeout time.Duration
	TLS            TLSOptions
}

// TLSOptions controls transport encryption.
type TLSOptions struct {
	Enabled    bool
	MinVersion uint16
	MaxVersion uint16
}

const defaultBoltPort = 7687

var (
	// ErrMissingEndpoint indicates no graph endpoint was provided.
	ErrMissingEndpoint = errors.New("at least one graph endpoint is required")

	errUnknownProtocol = errors.New("unknown TLS protocol")
)

// URIs expands the configured endpoints into Bolt URIs. A host that carries
// its own port keeps it; Port applies to the rest.
func (o Options) URIs() []string {
	port := o.Port
	if port <= 0 {
		port = defaultBoltPort
	}
	scheme := "bolt"
	if o.TLS.Enabled {
		scheme = "bolt+s"
	}

	uris := make([]string, 0, len(o.Endpoints))
	for _, endpoint := range o.Endpoints {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint == "" {
			continue
		}
		if strings.Contains(endpoint, "://") {
			uris = append(uris, endpoint)
			continue
		}
		uris = append(uris, fmt.Sprintf("%s://%s", scheme, hostPort(endpoint, port)))
	}
	return uris
}

// hostPort keeps a port given with the host and appends the default otherwise.
func hostPort(endpoint string, port int) string {
	if host, p, err := net.SplitHostPort(endpoint); err == nil {
		return net.JoinHostPort(host, p)
	}
	return net.JoinHostPort(strings.Trim(endpoint, "[]"), strconv.Itoa(port))
}

// TLSConfig returns the tls.Config to hand to the driver, or nil when TLS is off.
func (o Options) TLSConfig() *tls.Config {
	if !o.TLS.Enabled {
		return nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if o.TLS.MinVersion != 0 {
		cfg.MinVersion = o.TLS.MinVersion
	}
	if o.TLS.MaxVersion != 0 {
		cfg.MaxVersion = o.TLS.MaxVersion
	}
	return cfg
}

// ParseTLSVersions maps protocol names such as "TLSv1.2" onto the lowest and
// highest crypto/tls version constants in the list.
func ParseTLSVersions(protocols []string) (uint16, uint16, error) {
	var minVersion, maxVersion uint16
	for _, p := range protocols {
		v, err := parseTLSVersion(p)
		if err != nil {
			return 0, 0, err
		}
		if minVersion == 0 || v < minVersion {
			minVersion = v
		}
		if v > maxVersion {
			maxVersion = v
		}
	}
	return minVersion, maxVersion, nil
}

func parseTLSVersion(name string) (uint16, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.TrimPrefix(normalized, "TLS")
	normalized = strings.TrimPrefix(normalized, "V")
	switch normalized {
	case "1", "1.0":
		return tls.VersionTLS10, nil
	case "1.1":
		return tls.VersionTLS11, nil
	case "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("%w %q", errUnknownProtocol, name)
	}
}
