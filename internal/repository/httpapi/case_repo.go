package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/and161185/appealkit/internal/apiclient"
	"github.com/and161185/appealkit/internal/convert"
	"github.com/and161185/appealkit/internal/model"
	"github.com/and161185/appealkit/internal/repository"
)

// Multipart field names of the case intake form.
const (
	FieldCurrentClaim   = "currentClaim"
	FieldPrevClaimDOS   = "prevClaimDOS"
	FieldPrevClaimCPT   = "prevClaimCPT"
	FieldPayerName      = "payerName"
	FieldDenialText     = "denialText"
	FieldEncounterText  = "encounterText"
	FieldSubmissionMode = "submissionMode"
	FieldDenialFiles    = "denialFiles"
	FieldEncounterFiles = "encounterFiles"
)

// CaseRepo implements CaseRepository over /cases and /analysis.
type CaseRepo struct{ api Sender }

var _ repository.CaseRepository = (*CaseRepo)(nil)

// NewCaseRepo constructs a case repository.
func NewCaseRepo(api Sender) *CaseRepo { return &CaseRepo{api: api} }

// submissionForm lays out sub as the intake multipart body. Text fields of
// the inactive mode are not sent.
func submissionForm(sub model.CaseSubmission) *apiclient.Form {
	f := &apiclient.Form{}
	f.Set(FieldSubmissionMode, string(sub.Mode))
	f.Set(FieldCurrentClaim, sub.CurrentClaim)
	f.Set(FieldPrevClaimDOS, sub.PrevClaimDOS)
	f.Set(FieldPrevClaimCPT, sub.PrevClaimCPT)
	if sub.PayerName != "" {
		f.Set(FieldPayerName, sub.PayerName)
	}
	switch sub.Mode {
	case model.ModePaste:
		f.Set(FieldDenialText, sub.DenialText)
		f.Set(FieldEncounterText, sub.EncounterText)
	default:
		attach(f, FieldDenialFiles, sub.DenialFiles)
		attach(f, FieldEncounterFiles, sub.EncounterFiles)
	}
	return f
}

func attach(f *apiclient.Form, field string, files []model.Attachment) {
	for _, a := range files {
		f.Attach(apiclient.FilePart{Field: field, Filename: a.Filename, ContentType: a.ContentType, Data: a.Data})
	}
}

// Create posts the intake as multipart/form-data.
func (r *CaseRepo) Create(ctx context.Context, sub model.CaseSubmission) (model.CaseResult, error) {
	res := r.api.SendMultipart(ctx, PathCases, submissionForm(sub))
	return apiclient.Decode(res, convert.CaseResult)
}

// List fetches one page of cases.
func (r *CaseRepo) List(ctx context.Context, page, limit int) (model.Page[model.Case], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	endpoint := PathCases
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	res := r.api.Send(ctx, endpoint, http.MethodGet, nil)
	return apiclient.Decode(res, convert.CasePage)
}

// Get fetches a case and its analysis.
func (r *CaseRepo) Get(ctx context.Context, caseID string) (model.CaseResult, error) {
	res := r.api.Send(ctx, PathCases+"/"+url.PathEscape(caseID), http.MethodGet, nil)
	return apiclient.Decode(res, convert.CaseResult)
}

// Like toggles the caller's like.
func (r *CaseRepo) Like(ctx context.Context, analysisID string) (model.Reactions, error) {
	return r.react(ctx, analysisID, "like")
}

// Dislike toggles the caller's dislike.
func (r *CaseRepo) Dislike(ctx context.Context, analysisID string) (model.Reactions, error) {
	return r.react(ctx, analysisID, "dislike")
}

func (r *CaseRepo) react(ctx context.Context, analysisID, verb string) (model.Reactions, error) {
	res := r.api.Send(ctx, PathAnalysis+"/"+url.PathEscape(analysisID)+"/"+verb, http.MethodPost, nil)
	return apiclient.Decode(res, convert.Reactions)
}
