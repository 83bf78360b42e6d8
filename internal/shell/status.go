package shell

// StatusKind is the display state of the last compile.
type StatusKind int

const (
	// StatusUnknown holds until the first compile attempt.
	StatusUnknown StatusKind = iota
	StatusSuccess
	StatusFailed
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Status is what the status panel shows. Message is the raw compiler
// diagnostic when Kind is StatusFailed.
type Status struct {
	Kind    StatusKind
	Message string
}

// Text is the panel text for the status.
func (s Status) Text() string {
	switch s.Kind {
	case StatusSuccess:
		return "Shader compilation was successful"
	case StatusFailed:
		return "Failed to compile shader\nerror: " + s.Message
	}
	return "Edit the shader and press Compile"
}

// nextStatus is the transition taken after a compile attempt. Every attempt
// lands in Success or Failed regardless of the previous state.
func nextStatus(msg string, failed bool) Status {
	if failed {
		return Status{Kind: StatusFailed, Message: msg}
	}
	return Status{Kind: StatusSuccess}
}
