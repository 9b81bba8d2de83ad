package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/and161185/appealkit/internal/model"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown output format %q (text, json, yaml)", s)
}

// View is the rendered form of a case and its analysis for one user.
type View struct {
	CaseID       string          `json:"caseId" yaml:"caseId"`
	CurrentClaim string          `json:"currentClaim" yaml:"currentClaim"`
	PrevClaimDOS string          `json:"prevClaimDOS" yaml:"prevClaimDOS"`
	PrevClaimCPT string          `json:"prevClaimCPT" yaml:"prevClaimCPT"`
	PayerName    string          `json:"payerName,omitempty" yaml:"payerName,omitempty"`
	CreatedAt    time.Time       `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
	AnalysisID   string          `json:"analysisId,omitempty" yaml:"analysisId,omitempty"`
	Reactions    model.Reactions `json:"reactions" yaml:"reactions"`
	Analysis     Payload         `json:"analysis" yaml:"analysis"`
}

// NewView builds the view of res as seen by userID.
func NewView(res model.CaseResult, userID string) (View, error) {
	p, err := Parse(res.Analysis.Payload)
	if err != nil {
		return View{}, err
	}
	return View{
		CaseID:       res.Case.ID,
		CurrentClaim: res.Case.CurrentClaim,
		PrevClaimDOS: res.Case.PrevClaimDOS,
		PrevClaimCPT: res.Case.PrevClaimCPT,
		PayerName:    res.Case.PayerName,
		CreatedAt:    res.Case.CreatedAt,
		AnalysisID:   res.Analysis.ID,
		Reactions:    res.Analysis.Reactions(userID),
		Analysis:     p,
	}, nil
}

// Encode writes v in a machine format, or as text.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintf(w, "%v\n", v)
		return err
	}
}

// Render writes v in the requested format.
func Render(w io.Writer, f Format, v View) error {
	if f != FormatText && f != "" {
		return Encode(w, f, v)
	}
	ew := &errWriter{w: w}
	ew.printf("Case %s\n", v.CaseID)
	ew.printf("  Current claim:  %s\n", v.CurrentClaim)
	ew.printf("  Previous claim: %s, CPT %s\n", v.PrevClaimDOS, v.PrevClaimCPT)
	if v.PayerName != "" {
		ew.printf("  Payer:          %s\n", v.PayerName)
	}
	if v.AnalysisID == "" && v.Analysis.Empty() {
		ew.printf("\nNo analysis available.\n")
		return ew.err
	}

	p := v.Analysis
	section(ew, "Recommended pathway", p.RecommendedPathway)
	list(ew, "Denial summary codes", p.DenialSummaryCodes)
	section(ew, "Root cause", p.RootCause)
	list(ew, "Staff instructions", p.StaffInstructions)
	section(ew, "Provider education", p.ProviderEducation)

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ew.printf("\n%s\n", Humanize(k))
		value(ew, 1, p.Extra[k])
	}

	r := v.Reactions
	ew.printf("\nHelpful? %s %d   %s %d\n", mark("up", r.HasLiked), r.Likes, mark("down", r.HasDisliked), r.Dislikes)
	return ew.err
}

func mark(s string, on bool) string {
	if on {
		return "[" + s + "]"
	}
	return s
}

func section(ew *errWriter, title, body string) {
	if body == "" {
		return
	}
	ew.printf("\n%s\n  %s\n", title, body)
}

func list(ew *errWriter, title string, items []string) {
	if len(items) == 0 {
		return
	}
	ew.printf("\n%s\n", title)
	for _, it := range items {
		ew.printf("  - %s\n", it)
	}
}

// value prints an arbitrary decoded JSON value.
func value(ew *errWriter, depth int, v any) {
	pad := strings.Repeat("  ", depth)
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if scalar(t[k]) {
				ew.printf("%s%s: %s\n", pad, Humanize(k), format(t[k]))
				continue
			}
			ew.printf("%s%s:\n", pad, Humanize(k))
			value(ew, depth+1, t[k])
		}
	case []any:
		for _, it := range t {
			if scalar(it) {
				ew.printf("%s- %s\n", pad, format(it))
				continue
			}
			ew.printf("%s-\n", pad)
			value(ew, depth+1, it)
		}
	default:
		ew.printf("%s%s\n", pad, format(t))
	}
}

func scalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case bool:
		if t {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(t)
	}
}

// Humanize turns camelCase or snake_case keys into title words.
func Humanize(key string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	rs := []rune(key)
	for i, r := range rs {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(rs[i-1]) || (i+1 < len(rs) && unicode.IsLower(rs[i+1]) && unicode.IsUpper(rs[i-1]))):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
