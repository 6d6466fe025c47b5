package models

import "time"

// Record is a patient profile as served by the remote record store. ID and
// CreatedAt are assigned by the store and immutable afterwards.
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar"`
	Description string    `json:"description"`
	Website     string    `json:"website"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Draft carries the editable subset of a record: what the form produces and
// the mutation endpoints consume. It has no identity of its own.
//
// The website field is deliberately not tagged required: an empty website is
// rejected as an invalid URL, matching the panel's historical behavior.
type Draft struct {
	Name        string `json:"name" validate:"required"`
	Avatar      string `json:"avatar" validate:"required,url"`
	Description string `json:"description" validate:"required"`
	Website     string `json:"website" validate:"url"`
}
