// Package selfupdate replaces the running orchestrator executable with
// the release published in the configured update manifest, after
// verifying its checksum.
package selfupdate
