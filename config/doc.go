// Package config loads healthwatch configuration.
//
// Loading happens in three layers, each overriding the last:
//
//  1. Defaults (see Default).
//  2. A YAML file. ${VAR} references are expanded strictly before parsing;
//     a reference to an unset variable is an error and $$ escapes a dollar.
//  3. HEALTHWATCH_* environment variables, optionally seeded from a .env file.
//
// The loaded Config converts to the option types of the other packages:
// alert.Policy, threshold.Set, store.Config, observe.Config and the monitor
// runner and scheduler settings.
package config
