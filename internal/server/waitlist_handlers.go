package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/betbot/hypiq/internal/waitlist"
)

const waitlistSuccessMessage = "Successfully added to waitlist"

type joinWaitlistRequest struct {
	Email interface{} `json:"email"`
}

type joinWaitlistResponse struct {
	Message   string           `json:"message"`
	Data      []waitlist.Entry `json:"data,omitempty"`
	Duplicate bool             `json:"duplicate,omitempty"`
}

// emailString 非字符串值按其文本形式校验；零值视为缺失
func emailString(v interface{}) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	case bool:
		if !e {
			return ""
		}
	case float64:
		if e == 0 {
			return ""
		}
	}
	return fmt.Sprint(v)
}

func (s *Server) handleWaitlistJoin(w http.ResponseWriter, r *http.Request) {
	var req joinWaitlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Warnf("waitlist: bad request body: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	res, err := s.waitlist.Register(r.Context(), emailString(req.Email))
	switch {
	case errors.Is(err, waitlist.ErrEmailRequired):
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	case errors.Is(err, waitlist.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	case err != nil:
		s.log.Errorf("waitlist: register failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to register email")
		return
	}

	resp := joinWaitlistResponse{Message: waitlistSuccessMessage}
	if res.Duplicate {
		resp.Duplicate = true
	} else if res.Entry != nil {
		resp.Data = []waitlist.Entry{*res.Entry}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleWaitlistCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.waitlist.Count(r.Context())
	if err != nil {
		s.log.Errorf("waitlist: count failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get waitlist count")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}
