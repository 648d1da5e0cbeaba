package nagcore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the contents of .nag/config.toml. Every field carries only
// ambient settings the core's own operations leave to their CLI callers:
// init's default-branch override and the watch service's poll interval and
// WebSocket origin allowlist. None of these are read by the core porcelain
// operations themselves (init's own default stays "main"; the core never
// serves HTTP) — they exist solely for cmd/nag and cmd/nagwatch to read
// before calling into the core.
type Config struct {
	Init struct {
		DefaultBranch string `toml:"default_branch"`
	} `toml:"init"`
	Watch struct {
		PollInterval    string   `toml:"poll_interval"`
		OriginAllowlist []string `toml:"origin_allowlist"`
	} `toml:"watch"`
}

// DefaultWatchPollInterval is used when config.toml is absent or leaves
// watch.poll_interval empty.
const DefaultWatchPollInterval = 100 * time.Millisecond

// PollInterval parses Watch.PollInterval (time.ParseDuration syntax, e.g.
// "250ms"), falling back to DefaultWatchPollInterval when unset or
// unparseable.
func (c *Config) PollInterval() time.Duration {
	if c == nil || c.Watch.PollInterval == "" {
		return DefaultWatchPollInterval
	}
	d, err := time.ParseDuration(c.Watch.PollInterval)
	if err != nil {
		return DefaultWatchPollInterval
	}
	return d
}

// OriginAllowed reports whether origin may open a WebSocket connection to
// the watch service. An empty allowlist means "allow any origin" — the
// watch service's documented default, matching the teacher's own
// local-trust assumption.
func (c *Config) OriginAllowed(origin string) bool {
	if c == nil || len(c.Watch.OriginAllowlist) == 0 {
		return true
	}
	for _, allowed := range c.Watch.OriginAllowlist {
		if allowed == origin {
			return true
		}
	}
	return false
}

func configPath(h *RepoHandle) string {
	return filepath.Join(h.MetaDir, "config.toml")
}

// LoadConfig reads .nag/config.toml, returning a zero-value Config (not an
// error) if the file does not exist yet — a fresh Init'd repository is
// usable before any config is ever written. config.toml is hand-authored by
// the user (there is no porcelain operation that writes it); LoadConfig is
// the only access this module needs.
func LoadConfig(h *RepoHandle) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(configPath(h))
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LoadConfig: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("LoadConfig: %w", ErrInvalidData)
	}
	return &cfg, nil
}
