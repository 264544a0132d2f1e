package build

// Stage identifies where in the pipeline a build currently is.
// Stages are strictly ordered and not resumable: a failure moves the
// build to StageFailed and the process exits non-zero.
type Stage int

const (
	// StageIdle means no build has started yet.
	StageIdle Stage = iota
	// StagePreparing covers environment checks, CEF download and patching.
	StagePreparing
	// StageCompiling covers the native CMake/Ninja/MSVC build.
	StageCompiling
	// StagePackaging covers assembling the output artifact set.
	StagePackaging
	// StageDone is the terminal success state.
	StageDone
	// StageFailed is the terminal failure state.
	StageFailed
)

// String returns the human-readable stage name used in logs and errors.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StagePreparing:
		return "prepare"
	case StageCompiling:
		return "compile"
	case StagePackaging:
		return "package"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}
