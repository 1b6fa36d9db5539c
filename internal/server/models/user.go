package models

import "time"

// Properties are the descriptive attributes of an account.
type Properties struct {
	FirstName string `json:"firstName" dynamodbav:"firstName"`
	LastName  string `json:"lastName" dynamodbav:"lastName"`
	DeskPhone string `json:"deskPhone,omitempty" dynamodbav:"deskPhone,omitempty"`
	CellPhone string `json:"cellPhone,omitempty" dynamodbav:"cellPhone,omitempty"`
	Address   string `json:"address,omitempty" dynamodbav:"address,omitempty"`
	City      string `json:"city,omitempty" dynamodbav:"city,omitempty"`
	State     string `json:"state,omitempty" dynamodbav:"state,omitempty"`
	ZipCode   string `json:"zipCode,omitempty" dynamodbav:"zipCode,omitempty"`
	Country   string `json:"country,omitempty" dynamodbav:"country,omitempty"`
}

// User is a stored account, keyed by Email. PasswordHash holds an scrypt
// digest and is never serialized to callers.
type User struct {
	Email        string     `json:"email"`
	UserID       string     `json:"userId"`
	Username     string     `json:"username,omitempty"`
	PasswordHash string     `json:"-"`
	Properties   Properties `json:"properties"`
	CreatedAt    time.Time  `json:"createdAt"`
	ModifiedAt   time.Time  `json:"modifiedAt"`
}
