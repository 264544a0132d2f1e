// Package platform maps the host OS and architecture to CEF
// distribution slugs and platform-appropriate artifact names.
package platform
