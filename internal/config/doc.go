// Package config loads, normalizes, and validates rafo configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks for secrets such as RAFO_OMNIA_API_SECRET. The resulting Config is
// read-only after startup and is passed explicitly into the analyzer,
// optimizer and export orchestrator constructors.
package config
