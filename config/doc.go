// Package config provides configuration loading for fixkit test suites.
//
// It uses Viper to load configuration from files and environment variables.
// Suites keep a fixkit.yml next to their test code (or under testdata/) and
// override values with environment variables; a .env file is honored when
// present so local runs and CI share the same entry point.
//
//	var cfg suiteConfig
//	err := config.Load("orders-acceptance", &cfg)
package config
