// Package model defines domain entities shared by the client layers.
package model

import (
	"encoding/json"
	"time"
)

// Roles known to the client.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the authenticated account as reported by the backend.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmailVerified  bool   `json:"emailVerified"`
	Role           string `json:"role"`
	CasesRemaining int    `json:"casesRemaining"`
	PlanType       string `json:"planType,omitempty"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Credentials is the login input.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Case is a denial-appeal record submitted for analysis. Immutable on the client.
type Case struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	CurrentClaim   string    `json:"currentClaim"`
	PrevClaimDOS   string    `json:"prevClaimDOS"`
	PrevClaimCPT   string    `json:"prevClaimCPT"`
	PayerName      string    `json:"payerName,omitempty"`
	DenialText     string    `json:"denialText,omitempty"`
	EncounterText  string    `json:"encounterText,omitempty"`
	DenialFiles    []string  `json:"denialFiles,omitempty"`
	EncounterFiles []string  `json:"encounterFiles,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Analysis is the AI output attached to one Case. Payload is server-defined.
type Analysis struct {
	ID         string          `json:"id"`
	CaseID     string          `json:"caseId"`
	UserID     string          `json:"userId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	LikedBy    []string        `json:"likedBy,omitempty"`
	DislikedBy []string        `json:"dislikedBy,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Reactions derives the reaction state of the analysis for the given user.
func (a Analysis) Reactions(userID string) Reactions {
	r := Reactions{Likes: len(a.LikedBy), Dislikes: len(a.DislikedBy)}
	for _, id := range a.LikedBy {
		if id == userID {
			r.HasLiked = true
		}
	}
	for _, id := range a.DislikedBy {
		if id == userID {
			r.HasDisliked = true
		}
	}
	return r
}

// Reactions is the like/dislike state of an analysis from one user's view.
type Reactions struct {
	Likes       int  `json:"likes" yaml:"likes"`
	Dislikes    int  `json:"dislikes" yaml:"dislikes"`
	HasLiked    bool `json:"hasLiked" yaml:"hasLiked"`
	HasDisliked bool `json:"hasDisliked" yaml:"hasDisliked"`
}

// CaseResult is what a successful intake submission returns.
type CaseResult struct {
	Case     Case     `json:"case"`
	Analysis Analysis `json:"analysis"`
}

// Plan is a purchasable case allowance.
type Plan struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency,omitempty"`
	CasesIncluded int     `json:"casesIncluded"`
	Interval      string  `json:"interval,omitempty"`
	Description   string  `json:"description,omitempty"`
}

// PaymentSession is a hosted checkout the user is redirected to.
type PaymentSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// Page is one page of a paginated list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Registration is the sign-up request body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Plan     string `json:"plan,omitempty"`
}

// RegistrationResult is what the backend answers to a sign-up.
type RegistrationResult struct {
	User              User   `json:"-"`
	NeedsVerification bool   `json:"needsVerification"`
	Message           string `json:"message,omitempty"`
}

// SubmissionMode selects how case evidence is supplied.
type SubmissionMode string

// Submission modes.
const (
	ModeUpload SubmissionMode = "upload"
	ModePaste  SubmissionMode = "paste"
)

// Attachment is one uploaded evidence file.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CaseSubmission is a validated intake ready to be sent.
type CaseSubmission struct {
	Mode           SubmissionMode
	CurrentClaim   string
	PrevClaimDOS   string
	PrevClaimCPT   string
	PayerName      string
	DenialText     string
	EncounterText  string
	DenialFiles    []Attachment
	EncounterFiles []Attachment
}
