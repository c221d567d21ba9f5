// Package pkgconfig exposes typed config getters behind the Config interface.
//
// The server reads config/config.yaml through Viper. Any key can be
// overridden from the environment with the EnvPrefix, for example the
// database DSN in a container. Modules receive a Config and never import
// Viper themselves.
package pkgconfig
