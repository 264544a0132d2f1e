// Package build is the orchestrator driving the three-stage pipeline
// that produces the browser shell: Prepare (environment checks, CEF
// download, patching), Compile (native toolchain) and Package (artifact
// assembly). Stages run strictly in order; the first failure is final.
package build
