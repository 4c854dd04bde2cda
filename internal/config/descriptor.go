package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanshika/graphload/internal/graph"
)

// Descriptor is the connection file handed to the importer on the command line.
type Descriptor struct {
	Hosts          []string       `yaml:"hosts"`
	Port           int            `yaml:"port"`
	Username       string         `yaml:"username"`
	Password       string         `yaml:"password"`
	ConnectionPool ConnectionPool `yaml:"connectionPool"`
	Serializer     *Serializer    `yaml:"serializer,omitempty"`
}

// ConnectionPool carries transport security settings.
type ConnectionPool struct {
	EnableSSL           bool     `yaml:"enableSsl"`
	SSLEnabledProtocols []string `yaml:"sslEnabledProtocols"`
}

// Serializer names the wire serializer. Bolt has a fixed encoding, so the
// block is only checked and reported.
type Serializer struct {
	ClassName string           `yaml:"className"`
	Config    SerializerConfig `yaml:"config"`
}

// SerializerConfig holds the serializer flags.
type SerializerConfig struct {
	SerializeResultToString bool `yaml:"serializeResultToString"`
}

var (
	// ErrNoHosts indicates a descriptor without any host entry.
	ErrNoHosts = errors.New("descriptor lists no hosts")
)

// LoadDescriptor reads and validates a YAML connection descriptor.
func LoadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read descriptor: %w", err)
	}
	return ParseDescriptor(data)
}

// ParseDescriptor decodes and validates descriptor YAML.
func ParseDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("parse descriptor: %w", err)
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Validate checks the descriptor is usable.
func (d Descriptor) Validate() error {
	hosts := 0
	for _, h := range d.Hosts {
		if strings.TrimSpace(h) != "" {
			hosts++
		}
	}
	if hosts == 0 {
		return ErrNoHosts
	}
	if d.Port < 0 || d.Port > 65535 {
		return fmt.Errorf("port %d is out of range", d.Port)
	}
	if d.Serializer != nil && strings.TrimSpace(d.Serializer.ClassName) == "" {
		return errors.New("serializer.className is required when serializer is set")
	}
	if _, _, err := d.tlsVersions(); err != nil {
		return err
	}
	return nil
}

// tlsVersions parses the protocol list; it is ignored while TLS is off.
func (d Descriptor) tlsVersions() (uint16, uint16, error) {
	if !d.ConnectionPool.EnableSSL {
		return 0, 0, nil
	}
	minVersion, maxVersion, err := graph.ParseTLSVersions(d.ConnectionPool.SSLEnabledProtocols)
	if err != nil {
		return 0, 0, fmt.Errorf("connectionPool.sslEnabledProtocols: %w", err)
	}
	return minVersion, maxVersion, nil
}

// GraphOptions merges the descriptor with the environment graph settings.
func (d Descriptor) GraphOptions(cfg GraphConfig) (graph.Options, error) {
	minVersion, maxVersion, err := d.tlsVersions()
	if err != nil {
		return graph.Options{}, err
	}
	return graph.Options{
		Endpoints:      append([]string(nil), d.Hosts...),
		Port:           d.Port,
		Database:       cfg.Database,
		Username:       d.Username,
		Password:       d.Password,
		MaxConnections: cfg.MaxConnections,
		TLS: graph.TLSOptions{
			Enabled:    d.ConnectionPool.EnableSSL,
			MinVersion: minVersion,
			MaxVersion: maxVersion,
		},
	}, nil
}
