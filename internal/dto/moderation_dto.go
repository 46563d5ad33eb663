package dto

type TransitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}
