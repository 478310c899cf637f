package server

import "net/http"

// page is the template payload for the form view.
type page struct {
	Result string
	Error  string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, page{})
}

// handlePredict classifies the form's text field. A missing field is a
// client error; an empty value is legal input and flows through the model
// like any other text.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, page{Error: "malformed form data"})
		return
	}
	values, ok := r.PostForm["text"]
	if !ok {
		s.render(w, http.StatusBadRequest, page{Error: "text field is required"})
		return
	}

	label, err := s.predictor.Predict(values[0])
	if err != nil {
		s.logger.Error("prediction failed",
			"request_id", requestIDFrom(r.Context()),
			"error", err,
		)
		s.render(w, http.StatusInternalServerError, page{Error: "prediction failed"})
		return
	}

	s.metrics.RecordPrediction(label)
	s.render(w, http.StatusOK, page{Result: label})
}

func (s *Server) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, p); err != nil {
		s.logger.Error("render page", "error", err)
	}
}
