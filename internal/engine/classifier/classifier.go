// Package classifier deserializes trained model artifacts and produces the
// top label for a feature vector.
//
// An artifact is a JSON manifest with a "flavor" field naming the concrete
// model format. The linear flavor embeds its weights directly; the onnx
// flavor references an ONNX graph on the local filesystem.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDimension is returned by Predict when the feature vector width does not
// match the model's expected input width.
var ErrDimension = errors.New("feature vector dimension mismatch")

// Model is a deserialized classifier bound to one resolved registry version.
// Implementations are immutable after load and safe for concurrent use for
// the lifetime of the process.
type Model interface {
	// Predict returns the top-ranked class label for vec.
	Predict(vec []float32) (string, error)
	// InputDim returns the feature vector width the model expects.
	InputDim() int
	// Close releases any native resources held by the model.
	Close() error
}

type manifest struct {
	Flavor string          `json:"flavor"`
	Linear json.RawMessage `json:"linear,omitempty"`
	ONNX   json.RawMessage `json:"onnx,omitempty"`
}

// Load deserializes a model artifact. baseDir anchors relative file
// references inside the manifest (the directory the manifest was fetched
// to); it may be empty when the manifest is self-contained.
func Load(raw []byte, baseDir string) (Model, error) {
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("classifier: parse manifest: %w", err)
	}
	switch m.Flavor {
	case "linear":
		if len(m.Linear) == 0 {
			return nil, fmt.Errorf("classifier: manifest flavor linear has no linear section")
		}
		return newLinear(m.Linear)
	case "onnx":
		if len(m.ONNX) == 0 {
			return nil, fmt.Errorf("classifier: manifest flavor onnx has no onnx section")
		}
		return newONNX(m.ONNX, baseDir)
	case "":
		return nil, fmt.Errorf("classifier: manifest missing flavor")
	default:
		return nil, fmt.Errorf("classifier: unsupported flavor %q", m.Flavor)
	}
}

// argmax returns the index of the largest score; ties go to the lowest index.
func argmax(scores []float32) int {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}
