// Package config holds the YAML run configuration and the built-in exercise
// presets (assignment1, assignment2, assignment3, capstone).
package config
