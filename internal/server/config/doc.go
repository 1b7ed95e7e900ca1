// Package config defines the keyden-server configuration structure.
//
// Configuration is loaded through infra/confloader with priority
// Env > File > Default. Struct fields carry koanf tags matching the
// YAML schema and the KEYDEN_ environment variable layout.
package config
