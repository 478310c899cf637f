package classifier

import (
	"encoding/json"
	"fmt"
)

// linearModel is a dense linear classifier: one weight row per decision
// score, scored by matrix-vector multiplication plus intercept.
//
// A single row is the binary form: a positive decision picks classes[1],
// otherwise classes[0]. With one row per class the top score wins.
type linearModel struct {
	classes    []string
	weights    []float32 // row-major [rows, dim]
	intercepts []float32
	rows       int
	dim        int
}

type linearConfig struct {
	Classes      []string    `json:"classes"`
	Coefficients [][]float32 `json:"coefficients"`
	Intercepts   []float32   `json:"intercepts"`
}

func newLinear(raw json.RawMessage) (*linearModel, error) {
	var cfg linearConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("classifier: parse linear section: %w", err)
	}

	if len(cfg.Classes) < 2 {
		return nil, fmt.Errorf("classifier: linear model needs at least 2 classes, got %d", len(cfg.Classes))
	}
	rows := len(cfg.Coefficients)
	if rows == 0 {
		return nil, fmt.Errorf("classifier: linear model has no coefficient rows")
	}
	if rows != 1 && rows != len(cfg.Classes) {
		return nil, fmt.Errorf("classifier: %d coefficient rows for %d classes", rows, len(cfg.Classes))
	}
	if rows == 1 && len(cfg.Classes) != 2 {
		return nil, fmt.Errorf("classifier: single-row form requires exactly 2 classes, got %d", len(cfg.Classes))
	}
	if len(cfg.Intercepts) != rows {
		return nil, fmt.Errorf("classifier: %d intercepts for %d coefficient rows", len(cfg.Intercepts), rows)
	}

	dim := len(cfg.Coefficients[0])
	if dim == 0 {
		return nil, fmt.Errorf("classifier: linear model has zero-width coefficient rows")
	}
	weights := make([]float32, 0, rows*dim)
	for i, row := range cfg.Coefficients {
		if len(row) != dim {
			return nil, fmt.Errorf("classifier: coefficient row %d has width %d, want %d", i, len(row), dim)
		}
		weights = append(weights, row...)
	}

	return &linearModel{
		classes:    cfg.Classes,
		weights:    weights,
		intercepts: cfg.Intercepts,
		rows:       rows,
		dim:        dim,
	}, nil
}

func (m *linearModel) InputDim() int {
	return m.dim
}

func (m *linearModel) Predict(vec []float32) (string, error) {
	if len(vec) != m.dim {
		return "", fmt.Errorf("classifier: got %d features, model expects %d: %w", len(vec), m.dim, ErrDimension)
	}

	scores := make([]float32, m.rows)
	for i := 0; i < m.rows; i++ {
		row := m.weights[i*m.dim : (i+1)*m.dim]
		sum := m.intercepts[i]
		for j, w := range row {
			sum += w * vec[j]
		}
		scores[i] = sum
	}

	if m.rows == 1 {
		if scores[0] > 0 {
			return m.classes[1], nil
		}
		return m.classes[0], nil
	}
	return m.classes[argmax(scores)], nil
}

func (m *linearModel) Close() error {
	return nil
}
