package maincmd

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// envConfig holds the driver knobs that are read from the environment
// rather than flags, so an embedder running many programs in one process
// can fix them once (§5 "cooperative time-boxing").
type envConfig struct {
	Timeout    time.Duration `env:"FELYS_TIMEOUT"`
	StackDepth int           `env:"FELYS_STACK_DEPTH"`
}

// loadEnvConfig reads envConfig from the process environment. A field left
// unset in the environment keeps its zero value, which Run treats as "use
// the built-in default".
func loadEnvConfig() (envConfig, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return envConfig{}, err
	}
	return cfg, nil
}
