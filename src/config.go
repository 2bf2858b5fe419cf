package nibblelink

/*------------------------------------------------------------------
 *
 * Purpose:	Runtime configuration.
 *
 * Description:	Everything has a sensible default; a YAML file can
 *		override any of it and command line flags override the
 *		file.  Timing defaults are the protocol contract: 5000
 *		polls of 100 us each per symbol, 200 ms settle.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Hardware backend.  Lines are DATA0, DATA1, CLOCK, ACK for
	// outputs and register bits 4..7 for inputs, in order.
	GPIOChip    string `yaml:"gpiochip"`
	OutputLines []int  `yaml:"output_lines"`
	InputLines  []int  `yaml:"input_lines"`

	// Simulator backend.
	CablePath string `yaml:"cable"`

	// Symbol-level timing.
	PollIterations int `yaml:"poll_iterations"`
	PollIntervalUS int `yaml:"poll_interval_us"`
	SettleMS       int `yaml:"settle_ms"`
	PostZeroMS     int `yaml:"post_zero_ms"`

	// Sinks.
	ReceiveDir    string `yaml:"receive_dir"`
	MessageLogDir string `yaml:"message_log_dir"`

	// Observability.
	MetricsAddr string `yaml:"metrics_addr"`
}

func DefaultConfig() *Config {
	return &Config{
		OutputLines:    []int{0, 1, 2, 3},
		InputLines:     []int{4, 5, 6, 7},
		CablePath:      DEFAULT_CABLE_PATH,
		PollIterations: DEFAULT_POLL_ITERATIONS,
		PollIntervalUS: DEFAULT_POLL_INTERVAL_US,
		SettleMS:       DEFAULT_SETTLE_MS,
		PostZeroMS:     DEFAULT_POST_ZERO_MS,
		ReceiveDir:     ".",
	}
}

/*------------------------------------------------------------------
 *
 * Name:	LoadConfig
 *
 * Purpose:	Read a YAML config file over the defaults.
 *
 *------------------------------------------------------------------*/

func LoadConfig(path string) (*Config, error) {
	var cfg = DefaultConfig()

	var data, readErr = os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, readErr)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.PollIterations <= 0 || cfg.PollIntervalUS <= 0 {
		return nil, fmt.Errorf("config %s: poll budget must be positive", path)
	}
	if len(cfg.OutputLines) != 4 || len(cfg.InputLines) != 4 {
		return nil, fmt.Errorf("config %s: need exactly 4 output and 4 input lines", path)
	}

	return cfg, nil
}
