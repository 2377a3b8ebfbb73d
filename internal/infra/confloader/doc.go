// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults already present in the target struct
//  2. A YAML file
//  3. Environment variables (REDIS_ prefix)
//  4. A flag map supplied by the caller
//
// Watcher reports writes to a loaded file so long-running commands can
// apply changes such as a new log level.
package confloader
