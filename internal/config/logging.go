package config

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// InLambda reports whether the process runs inside the AWS Lambda runtime.
func InLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// SetupLogger configures the global logrus logger: JSON when jsonOutput is set,
// text with full timestamps otherwise.
func SetupLogger(level string, jsonOutput bool) error {
	if jsonOutput {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	return nil
}
