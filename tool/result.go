package tool

import "fmt"

// Result is the structured outcome of a single tool execution. A Result with
// a non-empty Error field represents a tool-level failure that is reported
// back to the model as an observation rather than aborting the agent loop.
type Result struct {
	Output      string `json:"output,omitempty"`
	Error       string `json:"error,omitempty"`
	Base64Image string `json:"base64_image,omitempty"`
	System      string `json:"system,omitempty"`
}

// IsZero reports whether every field of the result is empty.
func (r Result) IsZero() bool {
	return r.Output == "" && r.Error == "" && r.Base64Image == "" && r.System == ""
}

// String renders the result for the model: the error takes precedence over
// the output when both are set.
func (r Result) String() string {
	if r.Error != "" {
		return fmt.Sprintf("Error: %s", r.Error)
	}
	return r.Output
}

// Combine merges another result into this one. Text fields concatenate;
// an image can only come from one side, combining two images fails.
func (r Result) Combine(other Result) (Result, error) {
	out := Result{
		Output: combineField(r.Output, other.Output),
		Error:  combineField(r.Error, other.Error),
		System: combineField(r.System, other.System),
	}

	switch {
	case r.Base64Image != "" && other.Base64Image != "":
		return Result{}, fmt.Errorf("cannot combine results: both carry an image")
	case other.Base64Image != "":
		out.Base64Image = other.Base64Image
	default:
		out.Base64Image = r.Base64Image
	}

	return out, nil
}

func combineField(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + b
}
