// Package resolver matches queue-membership extension references against the
// extension registry. The membership list and the registry come from
// independent portal views that disagree on formatting, so resolution is a
// best-effort chain of strategies. Results are used for display only; diff
// identity always stays the raw reference.
package resolver

import (
	"sort"
	"strings"

	"github.com/telaudit/pbxaudit/pkg/types"
)

// MatchKind tags which strategy resolved a reference. The chain is ordered;
// the first strategy that matches wins.
type MatchKind string

const (
	// MatchExact is a verbatim match against a registry code.
	MatchExact MatchKind = "exact"
	// MatchNormalized matched after stripping hyphens/spaces and uppercasing.
	MatchNormalized MatchKind = "normalized"
	// MatchDigits matched on the digit-only subsequence, one side being a
	// substring of the other.
	MatchDigits MatchKind = "digits"
	// MatchNone means no strategy matched.
	MatchNone MatchKind = "none"
)

// UnresolvedPrefix marks display names for references that no strategy could
// resolve, keeping the original reference visible in reports.
const UnresolvedPrefix = "⚠️ "

// Resolution is the outcome of resolving one reference.
type Resolution struct {
	Ref         string
	DisplayName string
	Kind        MatchKind
}

// Resolver resolves extension references against a fixed registry. It
// records every unresolved reference for an operator-facing warning; it
// never fails.
type Resolver struct {
	byCode       map[string]string
	byNormalized map[string]string
	codes        []string
	digitsByCode map[string]string
	unresolved   map[string]bool
}

// New builds a resolver over the extension registry of a snapshot.
func New(extensions []types.Extension) *Resolver {
	r := &Resolver{
		byCode:       make(map[string]string, len(extensions)),
		byNormalized: make(map[string]string, len(extensions)),
		codes:        make([]string, 0, len(extensions)),
		digitsByCode: make(map[string]string, len(extensions)),
		unresolved:   make(map[string]bool),
	}

	for _, ext := range extensions {
		name := ext.Name
		if name == "" {
			name = ext.Code
		}
		r.byCode[ext.Code] = name
		r.byNormalized[normalize(ext.Code)] = name
		r.codes = append(r.codes, ext.Code)
		r.digitsByCode[ext.Code] = digitsOf(ext.Code)
	}

	return r
}

// Resolve runs the strategy chain for one reference.
func (r *Resolver) Resolve(ref string) Resolution {
	if name, ok := r.byCode[ref]; ok {
		return Resolution{Ref: ref, DisplayName: name, Kind: MatchExact}
	}

	if name, ok := r.byNormalized[normalize(ref)]; ok {
		return Resolution{Ref: ref, DisplayName: name, Kind: MatchNormalized}
	}

	if refDigits := digitsOf(ref); refDigits != "" {
		for _, code := range r.codes {
			codeDigits := r.digitsByCode[code]
			if codeDigits == "" {
				continue
			}
			if strings.Contains(codeDigits, refDigits) || strings.Contains(refDigits, codeDigits) {
				return Resolution{Ref: ref, DisplayName: r.byCode[code], Kind: MatchDigits}
			}
		}
	}

	r.unresolved[ref] = true
	return Resolution{Ref: ref, DisplayName: UnresolvedPrefix + ref, Kind: MatchNone}
}

// DisplayName is the common case: just the human-readable name for a
// reference.
func (r *Resolver) DisplayName(ref string) string {
	return r.Resolve(ref).DisplayName
}

// Unresolved returns the references no strategy could match, sorted, for the
// data-quality warning.
func (r *Resolver) Unresolved() []string {
	refs := make([]string, 0, len(r.unresolved))
	for ref := range r.unresolved {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// normalize strips hyphens and spaces and uppercases, the same folding the
// portal applies inconsistently between views.
func normalize(code string) string {
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return strings.ToUpper(code)
}

// digitsOf keeps only the digit characters of a code.
func digitsOf(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
