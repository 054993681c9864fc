package sqlite

import "fmt"

// Config points at an SQLite snapshot of the tracking database.
type Config struct {
	Path string
}

// FromMap creates a Config from a generic config map.
func FromMap(config map[string]any) (*Config, error) {
	path, ok := config["path"].(string)
	if !ok || path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return &Config{Path: path}, nil
}
