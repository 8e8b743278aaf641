// Package envconfig binds the compiler's environment-derived settings
// (SPEC_FULL.md §4.14): the cache/build directory roots and the two debug
// tracing switches. Grounded on funvibe-funxy/internal/config's thin
// struct-plus-loader shape, but using github.com/caarlos0/env/v6's
// struct-tag binding instead of that package's own yaml.Unmarshal, since
// this is env-var-sourced configuration rather than a file — the same
// library the teacher's own go.mod already carries (indirectly, for
// internal/maincmd) for exactly this purpose.
package envconfig

import "github.com/caarlos0/env/v6"

// Settings are every environment-derived knob the driver consults. None of
// these have a project-manifest equivalent (spec.md §1 excludes project
// manifest disk I/O from the core), so env vars are the only configuration
// surface that exists.
type Settings struct {
	CacheRoot        string `env:"TONIC_CACHE_ROOT" envDefault:""`
	BuildRoot        string `env:"TONIC_BUILD_ROOT" envDefault:".tonic/build"`
	DebugCache       bool   `env:"TONIC_DEBUG_CACHE"`
	DebugModuleLoads bool   `env:"TONIC_DEBUG_MODULE_LOADS"`
}

// Load reads Settings from the process environment.
func Load() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
