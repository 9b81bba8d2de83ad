package httpapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const caseReply = `{"case":{"_id":"c1","currentClaim":"CLM-9","prevClaimDOS":"2024-01-01","prevClaimCPT":"99213"},
"analysis":{"_id":"a1","payload":{"summary":"appealable"},"likedBy":["u1"]}}`

func TestCaseRepo_CreateUpload(t *testing.T) {
	c, rec := fakeAPI(t, 201, caseReply)
	repo := NewCaseRepo(c)

	res, err := repo.Create(context.Background(), model.CaseSubmission{
		Mode:         model.ModeUpload,
		CurrentClaim: "CLM-9",
		PrevClaimDOS: "2024-01-01",
		PrevClaimCPT: "99213",
		DenialText:   "ignored in upload mode",
		DenialFiles: []model.Attachment{
			{Filename: "eob.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
		},
		EncounterFiles: []model.Attachment{
			{Filename: "note.png", ContentType: "image/png", Data: []byte("png")},
			{Filename: "note2.png", ContentType: "image/png", Data: []byte("png")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", res.Case.ID)
	assert.Equal(t, "a1", res.Analysis.ID)
	assert.Equal(t, "c1", res.Analysis.CaseID)

	require.Equal(t, http.MethodPost, rec.method)
	require.Equal(t, PathCases, rec.path)
	values, files := rec.form(t)
	assert.Equal(t, "upload", values[FieldSubmissionMode])
	assert.Equal(t, "CLM-9", values[FieldCurrentClaim])
	assert.Equal(t, "99213", values[FieldPrevClaimCPT])
	assert.NotContains(t, values, FieldDenialText)
	assert.NotContains(t, values, FieldPayerName)
	assert.Equal(t, []string{"eob.pdf"}, files[FieldDenialFiles])
	assert.Equal(t, []string{"note.png", "note2.png"}, files[FieldEncounterFiles])
}

func TestCaseRepo_CreatePaste(t *testing.T) {
	c, rec := fakeAPI(t, 201, caseReply)
	repo := NewCaseRepo(c)

	_, err := repo.Create(context.Background(), model.CaseSubmission{
		Mode:          model.ModePaste,
		CurrentClaim:  "CLM-9",
		PrevClaimDOS:  "2024-01-01",
		PrevClaimCPT:  "99213",
		PayerName:     "Acme Health",
		DenialText:    "CO-50 not medically necessary",
		EncounterText: "patient seen for",
		DenialFiles:   []model.Attachment{{Filename: "stale.pdf", Data: []byte("x")}},
	})
	require.NoError(t, err)
	values, files := rec.form(t)
	assert.Equal(t, "paste", values[FieldSubmissionMode])
	assert.Equal(t, "Acme Health", values[FieldPayerName])
	assert.Equal(t, "CO-50 not medically necessary", values[FieldDenialText])
	assert.Equal(t, "patient seen for", values[FieldEncounterText])
	assert.Empty(t, files)
}

func TestCaseRepo_CreateNoAllowance(t *testing.T) {
	c, _ := fakeAPI(t, 403, `{"message":"No cases remaining"}`)
	_, err := NewCaseRepo(c).Create(context.Background(), model.CaseSubmission{Mode: model.ModePaste})
	require.EqualError(t, err, "No cases remaining")
	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestCaseRepo_List(t *testing.T) {
	c, rec := fakeAPI(t, 200, `{"cases":[{"_id":"c1"},{"_id":"c2"}],"page":2,"limit":10,"total":12,"totalPages":2}`)
	page, err := NewCaseRepo(c).List(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c2", page.Items[1].ID)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "limit=10&page=2", rec.query)
}

func TestCaseRepo_ListNoPaging(t *testing.T) {
	c, rec := fakeAPI(t, 200, `{"items":[]}`)
	page, err := NewCaseRepo(c).List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Empty(t, rec.query)
}

func TestCaseRepo_Get(t *testing.T) {
	c, rec := fakeAPI(t, 200, caseReply)
	res, err := NewCaseRepo(c).Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, PathCases+"/c1", rec.path)
	assert.Equal(t, model.Reactions{Likes: 1, HasLiked: true}, res.Analysis.Reactions("u1"))
}

func TestCaseRepo_GetMissing(t *testing.T) {
	c, _ := fakeAPI(t, 404, `{"error":"Case not found"}`)
	_, err := NewCaseRepo(c).Get(context.Background(), "nope")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCaseRepo_Reactions(t *testing.T) {
	c, rec := fakeAPI(t, 200, `{"likes":3,"dislikes":0,"hasLiked":true}`)
	repo := NewCaseRepo(c)

	r, err := repo.Like(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, model.Reactions{Likes: 3, HasLiked: true}, r)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, PathAnalysis+"/a1/like", rec.path)

	_, err = repo.Dislike(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, PathAnalysis+"/a1/dislike", rec.path)
}
