// Package config loads the application configuration from YAML and HUMMER_
// environment variables with viper.
package config
