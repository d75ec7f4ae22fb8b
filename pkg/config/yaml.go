package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Encode writes the configuration as YAML. Runtime handles (tasks, chain
// spec) are not part of the output.
func (c *Configuration) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
