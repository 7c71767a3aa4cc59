package pikachart

import (
	"os"
	"strconv"

	"github.com/raykavin/pikachart/pkg/logger"
	"github.com/raykavin/pikachart/pkg/logger/zerolog"
)

const (
	defaultLogLevel      = "info"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
)

// Environment variable names
const (
	envLogLevel      = "PIKACHART_LOG_LEVEL"
	envLogTimeFormat = "PIKACHART_LOG_TIME_FORMAT"
	envLogColor      = "PIKACHART_LOG_COLOR"
	envLogJSON       = "PIKACHART_LOG_JSON"
)

// DefaultLog is used by cards created without WithLogger
var DefaultLog logger.Logger = logger.Nop()

func init() {
	log, err := initLogger()
	if err != nil {
		// a bad environment must not take the host down; keep the silent logger
		return
	}
	DefaultLog = log
}

// initLogger creates a logger configured from environment variables
func initLogger() (logger.Logger, error) {
	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}

	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	log, err := zerolog.New(zerolog.Config{
		Level:      getEnvWithDefault(envLogLevel, defaultLogLevel),
		TimeLayout: getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat),
		Colored:    logColored,
		JSON:       logJSON,
	})
	if err != nil {
		return nil, err
	}
	return zerolog.NewAdapter(log), nil
}

// getEnvWithDefault returns the environment variable or defaultValue when unset
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseBoolEnv(key, defaultValue string) (bool, error) {
	return strconv.ParseBool(getEnvWithDefault(key, defaultValue))
}
