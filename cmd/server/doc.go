// Command server runs the navcore HTTP service.
//
// Configuration comes from the environment, optionally overlaid by the TOML
// or YAML file named by -config or NAVCORE_CONFIG.
package main
