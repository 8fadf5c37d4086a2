package common

import "time"

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvModelsDir      = "MODELS_DIR"
	EnvModelVersion   = "MODEL_VERSION"
	EnvTopDrivers     = "TOP_DRIVERS"
	EnvWarmOnStart    = "WARM_ON_START"
	EnvDataPath       = "DATA_PATH"
	EnvHistoryLimit   = "HISTORY_LIMIT"
	EnvHTTPPort       = "HTTP_PORT"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogPretty      = "LOG_PRETTY"
	EnvServerURL      = "RISK_SERVER_URL"
)

// Configuration defaults
const (
	DefaultModelsDir      = "models"
	DefaultModelVersion   = "v1"
	DefaultTopDrivers     = 5
	DefaultHistoryLimit   = 50
	DefaultHTTPPort       = 8080
	DefaultRequestTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
	DefaultServerURL      = "http://localhost:8080"
)

// Validation constants
const (
	MinHTTPPort       = 1024
	MaxHTTPPort       = 65535
	MinTopDrivers     = 1
	MaxTopDrivers     = 20
	MinHistoryLimit   = 1
	MaxHistoryLimit   = 1000
	MinRequestTimeout = time.Second
	MaxRequestTimeout = time.Minute
)

// Common error messages
const (
	ErrMsgModelsDirRequired    = "models directory cannot be empty"
	ErrMsgModelVersionRequired = "model version cannot be empty"
)
