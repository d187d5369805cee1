package env

import (
	"os"

	"github.com/pablo-arantes/af2-conformations/internal/envvar"
)

// Environment identifies the runtime environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// FromEnv reads the environment from AF2CONF_ENV.
// Anything other than "production" resolves to Development.
func FromEnv() Environment {
	if os.Getenv(envvar.Af2confEnv) == string(Production) {
		return Production
	}

	return Development
}
