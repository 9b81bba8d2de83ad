// Package convert maps backend JSON records onto domain entities.
//
// The backend is document-store backed: identifiers arrive as "_id" or "id",
// and a few flags have historical aliases. Everything is normalized here so
// the rest of the client only sees model types.
package convert

import (
	"encoding/json"
	"fmt"
	"time"

	model "github.com/and161185/appealkit/internal/model"
)

// --- helpers ---

func pickID(ids ...string) string {
	for _, id := range ids {
		if id != "" {
			return id
		}
	}
	return ""
}

func decode(raw json.RawMessage, v any, what string) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("empty %s", what)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}

// --- User ---

type wireUser struct {
	MongoID         string `json:"_id"`
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	EmailVerified   bool   `json:"emailVerified"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	Role            string `json:"role"`
	CasesRemaining  int    `json:"casesRemaining"`
	PlanType        string `json:"planType"`
}

func (w wireUser) model() model.User {
	role := w.Role
	if role == "" {
		role = model.RoleUser
	}
	return model.User{
		ID:             pickID(w.ID, w.MongoID),
		Name:           w.Name,
		Email:          w.Email,
		EmailVerified:  w.EmailVerified || w.IsEmailVerified,
		Role:           role,
		CasesRemaining: w.CasesRemaining,
		PlanType:       w.PlanType,
	}
}

// User converts a user record.
func User(raw json.RawMessage) (model.User, error) {
	var w wireUser
	if err := decode(raw, &w, "user"); err != nil {
		return model.User{}, err
	}
	return w.model(), nil
}

// UserEnvelope accepts either {"user": {...}} or the bare user record.
func UserEnvelope(raw json.RawMessage) (model.User, error) {
	var env struct {
		User json.RawMessage `json:"user"`
	}
	if err := decode(raw, &env, "user envelope"); err == nil && len(env.User) > 0 && string(env.User) != "null" {
		return User(env.User)
	}
	return User(raw)
}

// --- Case ---

type wireCase struct {
	MongoID        string    `json:"_id"`
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	User           string    `json:"user"`
	CurrentClaim   string    `json:"currentClaim"`
	PrevClaimDOS   string    `json:"prevClaimDOS"`
	PrevClaimCPT   string    `json:"prevClaimCPT"`
	PayerName      string    `json:"payerName"`
	DenialText     string    `json:"denialText"`
	EncounterText  string    `json:"encounterText"`
	DenialFiles    []string  `json:"denialFiles"`
	EncounterFiles []string  `json:"encounterFiles"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Case converts a case record.
func Case(raw json.RawMessage) (model.Case, error) {
	var w wireCase
	if err := decode(raw, &w, "case"); err != nil {
		return model.Case{}, err
	}
	return model.Case{
		ID:             pickID(w.ID, w.MongoID),
		UserID:         pickID(w.UserID, w.User),
		CurrentClaim:   w.CurrentClaim,
		PrevClaimDOS:   w.PrevClaimDOS,
		PrevClaimCPT:   w.PrevClaimCPT,
		PayerName:      w.PayerName,
		DenialText:     w.DenialText,
		EncounterText:  w.EncounterText,
		DenialFiles:    w.DenialFiles,
		EncounterFiles: w.EncounterFiles,
		CreatedAt:      w.CreatedAt,
	}, nil
}

// --- Analysis ---

type wireAnalysis struct {
	MongoID    string          `json:"_id"`
	ID         string          `json:"id"`
	CaseID     string          `json:"caseId"`
	Case       string          `json:"case"`
	UserID     string          `json:"userId"`
	User       string          `json:"user"`
	Payload    json.RawMessage `json:"payload"`
	Analysis   json.RawMessage `json:"analysis"`
	LikedBy    []string        `json:"likedBy"`
	DislikedBy []string        `json:"dislikedBy"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Analysis converts an analysis record. The payload may be sent as "payload"
// or, by older backends, as "analysis".
func Analysis(raw json.RawMessage) (model.Analysis, error) {
	var w wireAnalysis
	if err := decode(raw, &w, "analysis"); err != nil {
		return model.Analysis{}, err
	}
	payload := w.Payload
	if len(payload) == 0 || string(payload) == "null" {
		payload = w.Analysis
	}
	return model.Analysis{
		ID:         pickID(w.ID, w.MongoID),
		CaseID:     pickID(w.CaseID, w.Case),
		UserID:     pickID(w.UserID, w.User),
		Payload:    payload,
		LikedBy:    w.LikedBy,
		DislikedBy: w.DislikedBy,
		CreatedAt:  w.CreatedAt,
	}, nil
}

// CaseResult converts the {case, analysis} pair returned by case creation.
func CaseResult(raw json.RawMessage) (model.CaseResult, error) {
	var env struct {
		Case     json.RawMessage `json:"case"`
		Analysis json.RawMessage `json:"analysis"`
	}
	if err := decode(raw, &env, "case result"); err != nil {
		return model.CaseResult{}, err
	}
	c, err := Case(env.Case)
	if err != nil {
		return model.CaseResult{}, err
	}
	res := model.CaseResult{Case: c}
	if len(env.Analysis) > 0 && string(env.Analysis) != "null" {
		a, err := Analysis(env.Analysis)
		if err != nil {
			return model.CaseResult{}, err
		}
		if a.CaseID == "" {
			a.CaseID = c.ID
		}
		res.Analysis = a
	}
	return res, nil
}

// --- Reactions ---

// Reactions converts the like/dislike toggle response.
func Reactions(raw json.RawMessage) (model.Reactions, error) {
	var w struct {
		Likes        *int `json:"likes"`
		LikeCount    int  `json:"likeCount"`
		Dislikes     *int `json:"dislikes"`
		DislikeCount int  `json:"dislikeCount"`
		HasLiked     bool `json:"hasLiked"`
		HasDisliked  bool `json:"hasDisliked"`
	}
	if err := decode(raw, &w, "reactions"); err != nil {
		return model.Reactions{}, err
	}
	r := model.Reactions{Likes: w.LikeCount, Dislikes: w.DislikeCount, HasLiked: w.HasLiked, HasDisliked: w.HasDisliked}
	if w.Likes != nil {
		r.Likes = *w.Likes
	}
	if w.Dislikes != nil {
		r.Dislikes = *w.Dislikes
	}
	return r, nil
}

// --- Plans ---

type wirePlan struct {
	MongoID       string  `json:"_id"`
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	CasesIncluded int     `json:"casesIncluded"`
	Interval      string  `json:"interval"`
	Description   string  `json:"description"`
}

func (w wirePlan) model() model.Plan {
	return model.Plan{
		ID:            pickID(w.ID, w.MongoID),
		Name:          w.Name,
		Price:         w.Price,
		Currency:      w.Currency,
		CasesIncluded: w.CasesIncluded,
		Interval:      w.Interval,
		Description:   w.Description,
	}
}

// Plan converts a single plan record, bare or wrapped as {"plan": {...}}.
func Plan(raw json.RawMessage) (model.Plan, error) {
	var env struct {
		Plan json.RawMessage `json:"plan"`
	}
	if err := decode(raw, &env, "plan"); err == nil && len(env.Plan) > 0 && string(env.Plan) != "null" {
		raw = env.Plan
	}
	var w wirePlan
	if err := decode(raw, &w, "plan"); err != nil {
		return model.Plan{}, err
	}
	return w.model(), nil
}

// Plans converts a plan list, bare array or wrapped as {"plans": [...]}.
func Plans(raw json.RawMessage) ([]model.Plan, error) {
	var ws []wirePlan
	if err := json.Unmarshal(raw, &ws); err != nil {
		var env struct {
			Plans []wirePlan `json:"plans"`
		}
		if err := decode(raw, &env, "plans"); err != nil {
			return nil, err
		}
		ws = env.Plans
	}
	out := make([]model.Plan, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.model())
	}
	return out, nil
}

// --- Pages ---

// CasePage converts a paginated case list: {"cases": [...], "page", "limit",
// "total", "totalPages"} or the generic {"items": [...]} spelling.
func CasePage(raw json.RawMessage) (model.Page[model.Case], error) {
	var env struct {
		Cases      []json.RawMessage `json:"cases"`
		Items      []json.RawMessage `json:"items"`
		Page       int               `json:"page"`
		Limit      int               `json:"limit"`
		Total      int               `json:"total"`
		TotalPages int               `json:"totalPages"`
	}
	if err := decode(raw, &env, "case page"); err != nil {
		return model.Page[model.Case]{}, err
	}
	items := env.Cases
	if items == nil {
		items = env.Items
	}
	page := model.Page[model.Case]{
		Items:      make([]model.Case, 0, len(items)),
		Page:       env.Page,
		Limit:      env.Limit,
		Total:      env.Total,
		TotalPages: env.TotalPages,
	}
	for _, it := range items {
		c, err := Case(it)
		if err != nil {
			return model.Page[model.Case]{}, err
		}
		page.Items = append(page.Items, c)
	}
	return page, nil
}
