// Package toolchain discovers and drives the native build tools (CMake,
// Ninja/Make, MSVC). It is the only place external processes are spawned;
// their stdout/stderr are passed through untouched so the invoking user
// or CI run sees the toolchain's own diagnostics.
package toolchain
