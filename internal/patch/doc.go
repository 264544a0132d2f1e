// Package patch rebrands the cefsimple sample inside a CEF checkout:
// startup URL, application name and build target are rewritten in place
// before compilation.
package patch
