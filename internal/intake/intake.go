// Package intake holds the case intake form and its validation rules.
//
// A form is either in upload mode, where denial and encounter evidence are
// image attachments, or in paste mode, where both are free text. Switching
// modes keeps the other mode's data so nothing the user typed is lost.
package intake

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/model"
	"github.com/and161185/appealkit/internal/validate"
	"github.com/gabriel-vasile/mimetype"
)

// MaxFileSize is the largest accepted attachment.
const MaxFileSize = 10 << 20

// AllowedTypes are the accepted attachment MIME types.
var AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Group selects which evidence list an attachment belongs to.
type Group int

// Attachment groups.
const (
	Denial Group = iota
	Encounter
)

func (g Group) String() string {
	if g == Encounter {
		return "encounter"
	}
	return "denial"
}

func (g Group) field() string {
	if g == Encounter {
		return "encounterFiles"
	}
	return "denialFiles"
}

// Form is the intake form state. The zero value is an empty upload-mode form.
type Form struct {
	Mode          model.SubmissionMode `json:"submissionMode" validate:"omitempty,oneof=upload paste" label:"Submission mode"`
	CurrentClaim  string               `json:"currentClaim" validate:"required" label:"Current claim"`
	PrevClaimDOS  string               `json:"prevClaimDOS" validate:"required" label:"Previous claim date of service"`
	PrevClaimCPT  string               `json:"prevClaimCPT" validate:"required" label:"Previous claim CPT code"`
	PayerName     string               `json:"payerName"`
	DenialText    string               `json:"denialText"`
	EncounterText string               `json:"encounterText"`

	denial    []model.Attachment
	encounter []model.Attachment
}

// mode treats an unset mode as upload.
func (f *Form) mode() model.SubmissionMode {
	if f.Mode == "" {
		return model.ModeUpload
	}
	return f.Mode
}

// Files returns a copy of the attachments in g.
func (f *Form) Files(g Group) []model.Attachment {
	src := f.denial
	if g == Encounter {
		src = f.encounter
	}
	return append([]model.Attachment(nil), src...)
}

// Add appends an attachment to g after checking its type and size. A file
// whose name is already in g is dropped silently, before any check, and
// added is false.
func (f *Form) Add(g Group, filename string, data []byte) (added bool, err error) {
	name := filepath.Base(filename)
	list := &f.denial
	if g == Encounter {
		list = &f.encounter
	}
	for _, a := range *list {
		if a.Filename == name {
			return false, nil
		}
	}
	if len(data) > MaxFileSize {
		return false, fmt.Errorf("%w: %s exceeds %d MB", errs.ErrValidation, name, MaxFileSize>>20)
	}
	mt := mimetype.Detect(data)
	if !allowed(mt) {
		return false, fmt.Errorf("%w: %s is %s; only JPEG, PNG, GIF or WebP images are accepted", errs.ErrValidation, name, mt.String())
	}
	ct, _, _ := strings.Cut(mt.String(), ";")
	*list = append(*list, model.Attachment{Filename: name, ContentType: ct, Data: data})
	return true, nil
}

// AddPath reads path from disk and adds it to g.
func (f *Form) AddPath(g Group, path string) (bool, error) {
	st, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("attach %s: %w", path, err)
	}
	if st.Size() > MaxFileSize {
		return false, fmt.Errorf("%w: %s exceeds %d MB", errs.ErrValidation, filepath.Base(path), MaxFileSize>>20)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("attach %s: %w", path, err)
	}
	return f.Add(g, path, data)
}

// Remove drops the attachment named filename from g.
func (f *Form) Remove(g Group, filename string) {
	list := &f.denial
	if g == Encounter {
		list = &f.encounter
	}
	out := (*list)[:0]
	for _, a := range *list {
		if a.Filename != filename {
			out = append(out, a)
		}
	}
	*list = out
}

func allowed(mt *mimetype.MIME) bool {
	for _, t := range AllowedTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

// Validate checks the fields required by the current mode.
func (f *Form) Validate() error {
	fe := validate.FieldErrors{}
	if err := validate.Struct(f); err != nil && !errors.As(err, &fe) {
		return err
	}
	switch f.mode() {
	case model.ModePaste:
		if strings.TrimSpace(f.DenialText) == "" {
			fe.Add("denialText", "Denial text is required")
		}
		if strings.TrimSpace(f.EncounterText) == "" {
			fe.Add("encounterText", "Encounter text is required")
		}
	case model.ModeUpload:
		if len(f.denial) == 0 {
			fe.Add(Denial.field(), "At least one denial document is required")
		}
		if len(f.encounter) == 0 {
			fe.Add(Encounter.field(), "At least one encounter document is required")
		}
	}
	return fe.Err()
}

// Submission validates f and returns the payload to send. Data of the
// inactive mode is left out; f itself is not modified.
func (f *Form) Submission() (model.CaseSubmission, error) {
	if err := f.Validate(); err != nil {
		return model.CaseSubmission{}, err
	}
	sub := model.CaseSubmission{
		Mode:         f.mode(),
		CurrentClaim: strings.TrimSpace(f.CurrentClaim),
		PrevClaimDOS: strings.TrimSpace(f.PrevClaimDOS),
		PrevClaimCPT: strings.TrimSpace(f.PrevClaimCPT),
		PayerName:    strings.TrimSpace(f.PayerName),
	}
	if sub.Mode == model.ModePaste {
		sub.DenialText = f.DenialText
		sub.EncounterText = f.EncounterText
	} else {
		sub.DenialFiles = f.Files(Denial)
		sub.EncounterFiles = f.Files(Encounter)
	}
	return sub, nil
}
