package client

import (
	"path"

	"github.com/spf13/cast"
)

// Artifact is a reference to one generated output file on the engine side.
type Artifact struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// Path joins the optional subfolder with the filename.
func (a Artifact) Path() string {
	if a.Subfolder == "" {
		return a.Filename
	}
	return path.Join(a.Subfolder, a.Filename)
}

// NodeOutput carries the artifacts one node produced.  Only one of the
// slots is populated per node, depending on the modality.
type NodeOutput struct {
	Images []Artifact `json:"images,omitempty"`
	Videos []Artifact `json:"videos,omitempty"`
	Audio  []Artifact `json:"audio,omitempty"`
	Meshes []Artifact `json:"3d,omitempty"`
}

// first returns the first artifact in whichever slot is populated.
func (o NodeOutput) first() (Artifact, bool) {
	for _, slot := range [][]Artifact{o.Images, o.Videos, o.Audio, o.Meshes} {
		if len(slot) > 0 {
			return slot[0], true
		}
	}
	return Artifact{}, false
}

// ExecutionStatus is the engine's terminal status block for a history entry.
type ExecutionStatus struct {
	StatusStr string        `json:"status_str"`
	Completed bool          `json:"completed"`
	Messages  []interface{} `json:"messages"`
}

// HistoryEntry is one finished (or failed) job in the engine's history.
type HistoryEntry struct {
	Status  ExecutionStatus       `json:"status"`
	Outputs map[string]NodeOutput `json:"outputs"`
}

// errorMessage digs the first human-readable message out of the engine's
// loosely typed status messages, falling back to a generic string.
func (s ExecutionStatus) errorMessage() string {
	for _, m := range s.Messages {
		entry := cast.ToSlice(m)
		if len(entry) < 2 {
			continue
		}
		if cast.ToString(entry[0]) != "execution_error" {
			continue
		}
		detail := cast.ToStringMap(entry[1])
		if msg := cast.ToString(detail["exception_message"]); msg != "" {
			return msg
		}
	}
	// the original UI showed whatever the first message payload stringified to
	if len(s.Messages) > 0 {
		entry := cast.ToSlice(s.Messages[0])
		if len(entry) >= 2 {
			if msg := cast.ToString(entry[1]); msg != "" {
				return msg
			}
		}
	}
	return "generation failed"
}

// QueueState lists the job ids currently pending and running on the engine.
type QueueState struct {
	Pending []string
	Running []string
}

// SystemStats is the engine's liveness and device report.
type SystemStats struct {
	System  System          `json:"system"`
	Devices []ComputeDevice `json:"devices"`
}

type System struct {
	OS             string `json:"os"`
	PythonVersion  string `json:"python_version"`
	EmbeddedPython bool   `json:"embedded_python"`
}

type ComputeDevice struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Index     int    `json:"index"`
	VRAMTotal int64  `json:"vram_total"`
	VRAMFree  int64  `json:"vram_free"`
}

// PromptError is the engine's structured rejection of a submission.
type PromptError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details"`
	ExtraInfo map[string]interface{} `json:"extra_info"`
}

type PromptErrorMessage struct {
	Error      PromptError   `json:"error"`
	NodeErrors []interface{} `json:"node_errors"`
}
