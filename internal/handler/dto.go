package handler

import (
	"github.com/google/uuid"

	"party-server/internal/models"
)

// APIError is the standardized error response body.
type APIError struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

type CreateSessionRequest struct {
	CreatorName string              `json:"creatorName"`
	TagIDs      []uuid.UUID         `json:"tagIds,omitempty"`
	Settings    models.GameSettings `json:"settings"`
}

type CreateSessionResponse struct {
	Code          string    `json:"code"`
	ParticipantID uuid.UUID `json:"participantId"`
}

type JoinRequest struct {
	Name string `json:"name"`
	// Late-join neighbours; both must be set when joining a running session.
	AfterID  uuid.UUID `json:"afterId,omitempty"`
	BeforeID uuid.UUID `json:"beforeId,omitempty"`
}

type JoinResponse struct {
	ParticipantID uuid.UUID `json:"participantId"`
}

type SubmitRequest struct {
	ParticipantID uuid.UUID   `json:"participantId"`
	CardIDs       []uuid.UUID `json:"cardIds"`
}

type PickWinnerRequest struct {
	JudgeID      uuid.UUID `json:"judgeId"`
	SubmissionID uuid.UUID `json:"submissionId"`
}

type ParticipantActionRequest struct {
	CallerID uuid.UUID `json:"callerId"`
}

type TargetActionRequest struct {
	CallerID uuid.UUID `json:"callerId"`
	TargetID uuid.UUID `json:"targetId"`
}

type PlaceSkippedRequest struct {
	CallerID  uuid.UUID `json:"callerId"`
	SkippedID uuid.UUID `json:"skippedId"`
	AfterID   uuid.UUID `json:"afterId"`
}

type TransferHostRequest struct {
	CallerID  uuid.UUID `json:"callerId"`
	NewHostID uuid.UUID `json:"newHostId"`
	RemoveOld bool      `json:"removeOld"`
}
