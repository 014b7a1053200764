package config

import (
	"fmt"
	"os"
	"regexp"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	domain "github.com/oggyb/polysms/internal/domain/gateway"
)

// GatewaysFile is the layout of gateways.yaml.
//
//	default: gennet
//	gateways:
//	  - name: gennet
//	    driver: gennet
//	    enabled: true
//	    settings:
//	      api_key: ${GENNET_API_KEY}
type GatewaysFile struct {
	Default  string               `yaml:"default"`
	Gateways []*domain.Definition `yaml:"gateways"`
}

// gatewayEntry tells an omitted enabled key apart from enabled: false.
type gatewayEntry struct {
	Name        string         `yaml:"name"`
	Driver      string         `yaml:"driver"`
	Enabled     *bool          `yaml:"enabled"`
	Description string         `yaml:"description"`
	Settings    map[string]any `yaml:"settings"`
}

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} with environment values.
func ExpandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if v := os.Getenv(parts[1]); v != "" {
			return v
		}
		if len(parts) > 2 {
			return parts[2]
		}
		return ""
	})
}

// LoadGateways reads gateway definitions from a YAML file.
func LoadGateways(path string) (*GatewaysFile, error) {
	if path == "" {
		return nil, fmt.Errorf("gateways file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateways file '%s': %w", path, err)
	}
	return ParseGateways(data)
}

// ParseGateways parses gateways.yaml content. Entries without an explicit
// enabled key are enabled.
func ParseGateways(data []byte) (*GatewaysFile, error) {
	expanded := ExpandEnv(string(data))

	var raw struct {
		Default  string         `yaml:"default"`
		Gateways []gatewayEntry `yaml:"gateways"`
	}
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse gateways file: %w", err)
	}

	out := &GatewaysFile{Default: raw.Default}
	seen := make(map[string]bool, len(raw.Gateways))
	var errs error
	for i, g := range raw.Gateways {
		d := domain.Definition{
			Name:        g.Name,
			Driver:      g.Driver,
			Enabled:     g.Enabled == nil || *g.Enabled,
			Description: g.Description,
			Settings:    g.Settings,
		}
		if err := d.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("gateways[%d] %q: %w", i, d.Name, err))
			continue
		}
		if seen[d.Name] {
			errs = multierr.Append(errs, fmt.Errorf("gateways[%d]: duplicate name %q", i, d.Name))
			continue
		}
		seen[d.Name] = true
		out.Gateways = append(out.Gateways, &d)
	}
	if errs != nil {
		return nil, errs
	}

	if out.Default != "" && !seen[out.Default] {
		return nil, fmt.Errorf("default gateway %q is not defined", out.Default)
	}
	return out, nil
}
