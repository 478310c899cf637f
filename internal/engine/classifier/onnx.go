package classifier

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// onnxModel runs a classifier exported as an ONNX graph with a single
// float32 feature input and a single score-per-class output. The underlying
// session supports concurrent Run calls, so one model serves all requests.
type onnxModel struct {
	session    *ort.DynamicAdvancedSession
	classes    []string
	inputDim   int
	outputName string
}

type onnxConfig struct {
	ModelPath   string   `json:"model_path"`
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	Classes     []string `json:"classes"`
	InputDim    int      `json:"input_dim"`
	LibraryPath string   `json:"library_path,omitempty"`
}

func newONNX(raw json.RawMessage, baseDir string) (*onnxModel, error) {
	var cfg onnxConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("classifier: parse onnx section: %w", err)
	}

	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("classifier: onnx section missing model_path")
	}
	if len(cfg.Classes) < 2 {
		return nil, fmt.Errorf("classifier: onnx model needs at least 2 classes, got %d", len(cfg.Classes))
	}
	if cfg.InputDim < 1 {
		return nil, fmt.Errorf("classifier: onnx section missing input_dim")
	}

	modelPath := cfg.ModelPath
	if !filepath.IsAbs(modelPath) && baseDir != "" {
		modelPath = filepath.Join(baseDir, modelPath)
	}

	// The runtime shared library ships alongside the model unless the
	// manifest says otherwise.
	libPath := cfg.LibraryPath
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	} else if !filepath.IsAbs(libPath) && baseDir != "" {
		libPath = filepath.Join(baseDir, libPath)
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("classifier: initialize onnx runtime: %w", err)
	}

	inputName, outputName := cfg.InputName, cfg.OutputName
	if inputName == "" || outputName == "" {
		inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
		if err != nil {
			return nil, fmt.Errorf("classifier: read onnx model info: %w", err)
		}
		if len(inputs) == 0 || len(outputs) == 0 {
			return nil, fmt.Errorf("classifier: onnx model has no inputs or outputs")
		}
		if inputName == "" {
			inputName = inputs[0].Name
		}
		if outputName == "" {
			outputName = outputs[0].Name
		}
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("classifier: create onnx session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputName},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("classifier: create onnx session: %w", err)
	}

	return &onnxModel{
		session:    session,
		classes:    cfg.Classes,
		inputDim:   cfg.InputDim,
		outputName: outputName,
	}, nil
}

func (m *onnxModel) InputDim() int {
	return m.inputDim
}

func (m *onnxModel) Predict(vec []float32) (string, error) {
	if len(vec) != m.inputDim {
		return "", fmt.Errorf("classifier: got %d features, model expects %d: %w", len(vec), m.inputDim, ErrDimension)
	}

	in, err := ort.NewTensor(ort.NewShape(1, int64(m.inputDim)), vec)
	if err != nil {
		return "", fmt.Errorf("classifier: create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(m.classes))))
	if err != nil {
		return "", fmt.Errorf("classifier: create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := m.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return "", fmt.Errorf("classifier: onnx inference: %w", err)
	}

	scores := out.GetData()
	if len(scores) != len(m.classes) {
		return "", fmt.Errorf("classifier: onnx output has %d scores for %d classes", len(scores), len(m.classes))
	}
	return m.classes[argmax(scores)], nil
}

func (m *onnxModel) Close() error {
	return m.session.Destroy()
}
