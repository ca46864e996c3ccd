package models

import "time"

type Profile struct {
	UserID          string    `json:"user_id"`
	FullName        *string   `json:"full_name"`
	AvatarURL       *string   `json:"avatar_url"`
	Bio             *string   `json:"bio"`
	Specializations *[]string `json:"specializations"`
	HourlyRate      *float64  `json:"hourly_rate"`
	Rating          *float64  `json:"rating"`
	IsVerified      *bool     `json:"is_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProfileIdentity is the slice of a profile the thread assembler needs to
// label a conversation partner.
type ProfileIdentity struct {
	FullName  *string
	AvatarURL *string
}

type CoachListResponse struct {
	ID              string   `json:"id"`
	FullName        string   `json:"full_name"`
	AvatarURL       string   `json:"avatar_url"`
	Specializations []string `json:"specializations"`
	HourlyRate      float64  `json:"hourly_rate"`
	Rating          float64  `json:"rating"`
}

type CoachDetailResponse struct {
	CoachListResponse
	Bio        string `json:"bio"`
	IsVerified bool   `json:"is_verified"`
}
