// Package models defines the records exchanged with the portal backend.
// The backend owns them; the client only displays them and asks for
// transitions.
package models

import "encoding/json"

// Role is the authorization tier of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the authenticated account as returned by the auth endpoints.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	Role         Role   `json:"role"`
	RewardPoints int    `json:"rewardPoints"`
}

// IsAdmin reports whether the user holds the admin tier. Any other role,
// including an unknown one, is treated as standard.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName is the name when set, otherwise the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Clone returns a copy so snapshots never share a pointer with the store.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// UnmarshalJSON accepts both "id" and Mongo-style "_id".
func (u *User) UnmarshalJSON(b []byte) error {
	type alias User
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	if u.RewardPoints < 0 {
		u.RewardPoints = 0
	}
	return nil
}
