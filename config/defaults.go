package config

import (
	"fmt"
	"strings"
)

// GenerateConfigTemplate renders a commented settings.toml listing every
// valve at its default. Secret valves are left commented out.
func GenerateConfigTemplate() string {
	var sb strings.Builder
	sb.WriteString("# searchpipe settings\n")
	sb.WriteString("# Location: ~/.config/searchpipe/settings.toml\n")
	sb.WriteString("# This file uses TOML format: https://toml.io\n")
	sb.WriteString("# API keys may also be supplied through the environment.\n")

	for _, valve := range Registry {
		sb.WriteString("\n# ")
		sb.WriteString(valve.Description)
		sb.WriteString("\n")
		if valve.Secret {
			fmt.Fprintf(&sb, "# %s = \"\"\n", valve.Key)
			continue
		}
		fmt.Fprintf(&sb, "%s = %s\n", valve.Key, tomlLiteral(valve.Default))
	}

	return sb.String()
}

func tomlLiteral(value any) string {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
