package handler

import (
	"alumni/internal/region/cascade"
	"alumni/internal/region/models"
)

type ChildrenResponse struct {
	Level      models.Level    `json:"level"`
	ParentCode string          `json:"parent_code,omitempty"`
	Options    []models.Option `json:"options"`
}

type PostalCodeResponse struct {
	VillageCode string `json:"village_code"`
	PostalCode  string `json:"postal_code"`
}

// CreateSessionRequest may carry a snapshot to restore right after mount.
type CreateSessionRequest struct {
	Selection *models.Selection `json:"selection,omitempty"`
}

type SelectRequest struct {
	Level models.Level `json:"level"`
	Code  string       `json:"code"`
}

type PostalCodeRequest struct {
	PostalCode string `json:"postal_code"`
}

type RetryRequest struct {
	Level models.Level `json:"level"`
}

type SessionResponse struct {
	ID    string        `json:"id"`
	State cascade.State `json:"state"`
}
