package engine

import (
	"github.com/syncforge/syncengine/internal/health"
)

// HealthChecker returns a health.Checker that verifies every account in the
// Engine's config, reusing the Engine's own provider construction (local
// accounts built in-process, other backends via the configured
// ProviderFactory).
func (e *Engine) HealthChecker() *health.Checker {
	return health.New(e.cfg.Config, e.buildProvider)
}
