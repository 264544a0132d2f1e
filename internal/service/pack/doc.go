// Package pack assembles the output artifact set from a finished native
// build: executable, CEF shared library and resources are copied into a
// single directory, verified for completeness and described by a
// checksum manifest.
package pack
