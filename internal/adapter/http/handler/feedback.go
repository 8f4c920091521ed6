package handler

import (
	"context"
	"net/http"

	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
	wrap "github.com/Temirlan0k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
	"github.com/Temirlan0k/ride-dispatch/pkg/validator"
)

// FeedbackService records passenger feedback on completed rides.
type FeedbackService interface {
	SubmitFeedback(ctx context.Context, rideID uuid.UUID, rating int, feedback string) error
}

type Feedback struct {
	service FeedbackService
	log     logger.Logger
}

func NewFeedback(service FeedbackService, log logger.Logger) *Feedback {
	return &Feedback{service: service, log: log}
}

type feedbackRequest struct {
	RideID   uuid.UUID `json:"rideId"`
	Rating   int       `json:"rating"`
	Feedback string    `json:"feedback"`
}

func (req *feedbackRequest) validate(v *validator.Validator) {
	v.Check(req.RideID != uuid.NilUUID, "rideId", "rideId is required")
	v.Check(req.Rating >= 1 && req.Rating <= 5, "rating", "rating must be between 1 and 5")
	v.Check(len(req.Feedback) <= 1000, "feedback", "feedback must not exceed 1000 characters")
}

// Submit handles POST /api/v1/rides/feedback.
func (h *Feedback) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "submit_feedback")

	var req feedbackRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if err := h.service.SubmitFeedback(ctx, req.RideID, req.Rating, req.Feedback); err != nil {
		code := GetCode(err)
		if code == http.StatusInternalServerError {
			h.log.Error(ctx, "failed to submit feedback", err)
			errorResponse(w, code, "internal error")
			return
		}
		errorResponse(w, code, err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"message": "feedback recorded"}, nil); err != nil {
		h.log.Error(ctx, "failed to write response", err)
	}
}
