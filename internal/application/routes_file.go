package application

import (
	"fmt"
	"os"
	"time"

	"github.com/hms/gateway/internal/domain"
	"gopkg.in/yaml.v3"
)

type routesFile struct {
	DefaultTimeout time.Duration       `yaml:"default_timeout"`
	Routes         []domain.ProxyRoute `yaml:"routes"`
}

// LoadRoutesFile reads a YAML routing table. Routes without a timeout get the
// file's default_timeout, or fallback when the file does not set one.
func LoadRoutesFile(path string, fallback time.Duration) ([]domain.ProxyRoute, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}
	return ParseRoutes(data, fallback)
}

func ParseRoutes(data []byte, fallback time.Duration) ([]domain.ProxyRoute, error) {
	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse routes file: %w", err)
	}
	if len(f.Routes) == 0 {
		return nil, fmt.Errorf("%w: routes file defines no routes", domain.ErrInvalidRoute)
	}

	def := f.DefaultTimeout
	if def <= 0 {
		def = fallback
	}
	for i := range f.Routes {
		if f.Routes[i].Timeout <= 0 {
			f.Routes[i].Timeout = def
		}
	}
	return f.Routes, nil
}
