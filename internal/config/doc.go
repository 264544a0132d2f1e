// Package config loads and validates the checked-in build manifest
// (exabuild.yaml) describing the pinned CEF version, build type and
// filesystem layout used by every build stage.
package config
