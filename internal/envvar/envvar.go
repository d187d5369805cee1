package envvar

const (
	// Af2confEnv is the environment variable used to determine the environment
	Af2confEnv = "AF2CONF_ENV"

	// Af2confWeightsPath is the environment variable used to determine the pretrained weights directory
	Af2confWeightsPath = "AF2CONF_WEIGHTS_PATH"

	// Af2confSearchHost is the environment variable used to override the sequence search API host
	Af2confSearchHost = "AF2CONF_SEARCH_HOST"
)
