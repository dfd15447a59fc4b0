package models

import (
	"time"
)

type User struct {
	UID             string    `firestore:"uid" json:"uid"`
	Email           string    `firestore:"email" json:"email"`
	FullName        string    `firestore:"fullName" json:"fullName"`
	ProfileImageURL string    `firestore:"profileImageUrl,omitempty" json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt" json:"updatedAt"`
}
