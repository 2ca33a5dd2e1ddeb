package lightclient

import "github.com/0xPolygon/pegcore/tree"

// Config is the configuration of the execution chain light client
type Config struct {
	// DBPath is the path of the database holding the incremerkle states
	DBPath string `mapstructure:"DBPath"`
	// MaxStoredStates is the number of recent incremerkle states kept to handle reorgs
	MaxStoredStates int `mapstructure:"MaxStoredStates"`
}

// GetMaxStoredStates returns the number of states to keep
func (c *Config) GetMaxStoredStates() int {
	if c.MaxStoredStates <= 0 {
		return tree.MaxIncremerkles
	}
	return c.MaxStoredStates
}
