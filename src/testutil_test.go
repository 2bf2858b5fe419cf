package nibblelink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

/* Shared helpers for the protocol tests.  Two links on an in-process
 * patch cable, with timing cranked down so a full session runs in
 * milliseconds while the poll budget stays far above goroutine
 * scheduling noise. */

func test_config() *Config {
	var cfg = DefaultConfig()
	cfg.SettleMS = 0
	cfg.PostZeroMS = 0
	cfg.PollIntervalUS = 1
	cfg.PollIterations = 50000
	return cfg
}

func new_test_link(t *testing.T, cable *MemoryCable, name string, cfg *Config, injector *ErrorInjector) *Link {
	t.Helper()

	if cfg == nil {
		cfg = test_config()
	}
	if injector == nil {
		injector = NewErrorInjector(0)
	}

	var link, err = NewLink(name, cable.Port(name == "A"), cfg, NewStats(), injector, false)
	require.NoError(t, err)

	return link
}

func new_test_pair(t *testing.T) (*Link, *Link) {
	t.Helper()

	var cable = NewMemoryCable()
	var a = new_test_link(t, cable, "A", nil, nil)
	var b = new_test_link(t, cable, "B", nil, nil)
	return a, b
}
