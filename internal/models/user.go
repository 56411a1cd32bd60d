package models

import "time"

// LocalUserID owns reviews saved from the CLI and MCP surfaces.
const LocalUserID = "local"

// User is a GitHub account that has signed in through OAuth.
type User struct {
	GitHubID    int64     `json:"githubId"`
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatarUrl"`
	AccessToken string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
