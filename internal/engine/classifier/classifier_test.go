package classifier

import (
	"errors"
	"strings"
	"testing"
)

const binaryManifest = `{
  "flavor": "linear",
  "linear": {
    "classes": ["ham", "spam"],
    "coefficients": [[1.0, -1.0]],
    "intercepts": [-0.5]
  }
}`

const multiclassManifest = `{
  "flavor": "linear",
  "linear": {
    "classes": ["negative", "neutral", "positive"],
    "coefficients": [[2.0, 0.0], [0.0, 1.0], [1.0, 1.0]],
    "intercepts": [0.0, 0.5, 0.0]
  }
}`

func TestLoad_LinearBinary(t *testing.T) {
	m, err := Load([]byte(binaryManifest), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer m.Close()

	if m.InputDim() != 2 {
		t.Errorf("InputDim() = %d, want 2", m.InputDim())
	}

	tests := []struct {
		vec  []float32
		want string
	}{
		{[]float32{1, 0}, "spam"}, // decision 0.5 > 0
		{[]float32{0, 1}, "ham"},  // decision -1.5
		{[]float32{0, 0}, "ham"},  // decision -0.5
	}
	for _, tt := range tests {
		got, err := m.Predict(tt.vec)
		if err != nil {
			t.Fatalf("Predict(%v): %v", tt.vec, err)
		}
		if got != tt.want {
			t.Errorf("Predict(%v) = %q, want %q", tt.vec, got, tt.want)
		}
	}
}

func TestLoad_LinearMulticlass(t *testing.T) {
	m, err := Load([]byte(multiclassManifest), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer m.Close()

	tests := []struct {
		vec  []float32
		want string
	}{
		{[]float32{1, 0}, "negative"}, // scores 2, 0.5, 1
		{[]float32{0, 2}, "neutral"},  // scores 0, 2.5, 2
		{[]float32{1, 2}, "positive"}, // scores 2, 2.5, 3
		{[]float32{0, 0}, "neutral"},  // scores 0, 0.5, 0
	}
	for _, tt := range tests {
		got, err := m.Predict(tt.vec)
		if err != nil {
			t.Fatalf("Predict(%v): %v", tt.vec, err)
		}
		if got != tt.want {
			t.Errorf("Predict(%v) = %q, want %q", tt.vec, got, tt.want)
		}
	}
}

// Equal scores resolve to the lowest class index, so repeated calls cannot
// flap between labels.
func TestLinear_TieBreak(t *testing.T) {
	manifest := `{
	  "flavor": "linear",
	  "linear": {
	    "classes": ["a", "b"],
	    "coefficients": [[1.0], [1.0]],
	    "intercepts": [0.0, 0.0]
	  }
	}`
	m, err := Load([]byte(manifest), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer m.Close()

	got, err := m.Predict([]float32{3})
	if err != nil {
		t.Fatal(err)
	}
	if got != "a" {
		t.Errorf("tie broke to %q, want first class", got)
	}
}

func TestLinear_DimensionMismatch(t *testing.T) {
	m, err := Load([]byte(binaryManifest), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer m.Close()

	_, err = m.Predict([]float32{1, 2, 3})
	if err == nil {
		t.Fatal("expected dimension error")
	}
	if !errors.Is(err, ErrDimension) {
		t.Errorf("error %v is not ErrDimension", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"garbage", "not json", "parse manifest"},
		{"missing flavor", `{}`, "missing flavor"},
		{"unknown flavor", `{"flavor": "pickle"}`, "unsupported flavor"},
		{"linear without section", `{"flavor": "linear"}`, "no linear section"},
		{"onnx without section", `{"flavor": "onnx"}`, "no onnx section"},
		{
			"one class",
			`{"flavor": "linear", "linear": {"classes": ["only"], "coefficients": [[1]], "intercepts": [0]}}`,
			"at least 2 classes",
		},
		{
			"no coefficient rows",
			`{"flavor": "linear", "linear": {"classes": ["a","b"], "coefficients": [], "intercepts": []}}`,
			"no coefficient rows",
		},
		{
			"row count mismatch",
			`{"flavor": "linear", "linear": {"classes": ["a","b","c"], "coefficients": [[1],[2]], "intercepts": [0,0]}}`,
			"coefficient rows",
		},
		{
			"intercept count mismatch",
			`{"flavor": "linear", "linear": {"classes": ["a","b"], "coefficients": [[1]], "intercepts": [0,1]}}`,
			"intercepts",
		},
		{
			"ragged rows",
			`{"flavor": "linear", "linear": {"classes": ["a","b"], "coefficients": [[1,2],[3]], "intercepts": [0,0]}}`,
			"width",
		},
		{
			"onnx missing model path",
			`{"flavor": "onnx", "onnx": {"classes": ["a","b"], "input_dim": 4}}`,
			"model_path",
		},
		{
			"onnx one class",
			`{"flavor": "onnx", "onnx": {"model_path": "m.onnx", "classes": ["a"], "input_dim": 4}}`,
			"at least 2 classes",
		},
		{
			"onnx missing input dim",
			`{"flavor": "onnx", "onnx": {"model_path": "m.onnx", "classes": ["a","b"]}}`,
			"input_dim",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.raw), "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		scores []float32
		want   int
	}{
		{[]float32{1}, 0},
		{[]float32{1, 2, 3}, 2},
		{[]float32{3, 2, 1}, 0},
		{[]float32{1, 3, 2}, 1},
		{[]float32{2, 2}, 0},
		{[]float32{-5, -1, -3}, 1},
	}
	for _, tt := range tests {
		if got := argmax(tt.scores); got != tt.want {
			t.Errorf("argmax(%v) = %d, want %d", tt.scores, got, tt.want)
		}
	}
}
