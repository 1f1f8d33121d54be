package config

import (
	"fmt"
	"os"
)

// WriteTemplate writes a starter configuration file to path. Refuses to
// overwrite an existing file unless overwrite is set.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(agentTemplate), 0o600)
}

const agentTemplate = `[server]
server_address = "https://probe.example.com/api/report"
token = "change-me"
backup_servers = []
interval = 180
check_server_version = false

[statistics]
enabled = true
`
