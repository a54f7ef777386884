package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	// ErrDotenv also matches ErrLoadConfig.
	ErrDotenv = fmt.Errorf("%w: dotenv", ErrLoadConfig)
)
