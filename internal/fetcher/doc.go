// Package fetcher downloads the pinned prebuilt CEF distribution,
// verifies it against its published SHA-1 sidecar and unpacks it into
// the configured checkout directory.
package fetcher
