package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jeanpaul/dontforget/internal/health"
	"github.com/jeanpaul/dontforget/internal/store"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

type rememberRequest struct {
	Text string `json:"text" validate:"required"`
}

type rememberResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
	Tags   string `json:"tags"`
	Intent string `json:"intent"`
}

type remindRequest struct {
	Question string `json:"question" validate:"required"`
}

type remindResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRemember(w http.ResponseWriter, r *http.Request) {
	var req rememberRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := s.memory.Remember(r.Context(), req.Text)
	if errors.Is(err, store.ErrEmptyText) {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	if err != nil {
		s.logger.Error("remember failed",
			zap.String("requestID", middleware.GetReqID(r.Context())), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Error")
		return
	}

	respondJSON(w, http.StatusOK, rememberResponse{
		Status: "saved",
		ID:     note.ID,
		Tags:   note.Tags,
		Intent: note.Intent,
	})
}

func (s *Server) handleRemind(w http.ResponseWriter, r *http.Request) {
	var req remindRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := s.agent.Remind(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("remind failed",
			zap.String("requestID", middleware.GetReqID(r.Context())), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Error")
		return
	}
	respondJSON(w, http.StatusOK, remindResponse{Answer: answer})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := health.CheckStore(r.Context(), s.store); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// decode reads a bounded JSON body into dst and validates its tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.New("invalid JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return errors.New(strings.Join(fields, "; "))
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, errorResponse{Detail: detail})
}
