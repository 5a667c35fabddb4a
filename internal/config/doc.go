// Package config loads the YAML configuration surface: per-server
// identity, peer list, and election timing, and per-client server
// addresses and request-generation profile.
//
// The surface is structured enough — a peer list, a timing knob set —
// that a flat env-var scheme would be unwieldy, so it is loaded from a
// YAML file instead (gopkg.in/yaml.v2). The processes in cmd/ take the
// file's path from -config or an environment variable
// (TASKMESH_SERVER_CONFIG, TASKMESH_CLIENT_CONFIG), and
// TASKMESH_LOG_FORMAT=json switches their log output to JSON; the listen
// address and log level have no environment override.
package config
