// Package engine composes the text normalizer, feature vectorizer and the
// loaded classifier into the per-request prediction path.
package engine

import (
	"fmt"

	"github.com/ferndale/pigeonhole/internal/engine/classifier"
	"github.com/ferndale/pigeonhole/internal/engine/normalizer"
	"github.com/ferndale/pigeonhole/internal/engine/vectorizer"
)

// Engine turns raw text into a predicted label. It holds only read-only
// state after construction and is safe for concurrent use by any number of
// requests. Predict has no observable side effects; callers that want
// metrics record them after the call returns.
type Engine struct {
	vec   *vectorizer.Vectorizer
	model classifier.Model
}

// New checks that the vectorizer and model agree on feature width and
// returns an Engine. A width disagreement means mismatched artifacts were
// deployed, which no later call could recover from, so it fails here.
func New(vec *vectorizer.Vectorizer, model classifier.Model) (*Engine, error) {
	if vec == nil {
		return nil, fmt.Errorf("engine: vectorizer is required")
	}
	if model == nil {
		return nil, fmt.Errorf("engine: model is required")
	}
	if vec.Dim() != model.InputDim() {
		return nil, fmt.Errorf("engine: vectorizer width %d != model input width %d", vec.Dim(), model.InputDim())
	}
	return &Engine{vec: vec, model: model}, nil
}

// Predict classifies one raw text. Normalization and vectorization are
// total, so empty or junk input still yields a definite label; only an
// internal model fault produces an error.
func (e *Engine) Predict(text string) (string, error) {
	normalized := normalizer.Normalize(text)
	features := e.vec.Transform(normalized)
	label, err := e.model.Predict(features)
	if err != nil {
		return "", fmt.Errorf("engine: %w", err)
	}
	return label, nil
}

// Dim returns the shared feature width of the vectorizer and model.
func (e *Engine) Dim() int {
	return e.vec.Dim()
}

// Close releases model resources.
func (e *Engine) Close() error {
	return e.model.Close()
}
