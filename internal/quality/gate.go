package quality

import (
	"fmt"
	"strings"

	"github.com/presalekit/estimator/constants"
	"github.com/presalekit/estimator/internal/entity"
	"github.com/presalekit/estimator/internal/estimate"
)

// GateError reports the first failing predicate. Reason is the sub-reason
// carried into the repair prompt and the attempt trace.
type GateError struct {
	Reason string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("%s: %s", constants.CodeQualityGateFailed, e.Reason)
}

// Gate is the ordered chain of structural and heuristic predicates applied to
// a parsed payload before schema validation. Predicates are independent; the
// chain stops at the first failure because only the first failure is
// reported back to the model.
type Gate struct {
	policy Policy
}

func NewGate(policy Policy) *Gate {
	return &Gate{policy: policy}
}

// NormalizeRoles rewrites every leaf's role label through the synonym map and
// lowercases the result. Applied before the gate so role coverage sees
// canonical labels.
func (g *Gate) NormalizeRoles(payload map[string]any, variant entity.Variant) {
	for _, leaf := range estimate.LeafItems(payload, variant) {
		role, _ := leaf["role"].(string)
		role = strings.ToLower(strings.TrimSpace(role))
		if canon, ok := g.policy.RoleSynonyms[role]; ok {
			role = string(canon)
		}
		leaf["role"] = role
	}
}

// Check runs the predicate chain in its fixed order and returns the first
// failure as a *GateError, or nil when all pass. sourceText is the aggregated
// extracted document text used by the role-coverage predicate.
func (g *Gate) Check(payload map[string]any, variant entity.Variant, sourceText string) error {
	leaves := estimate.LeafItems(payload, variant)
	if len(leaves) == 0 {
		return &GateError{Reason: "no work items produced"}
	}

	checks := []func([]map[string]any, map[string]any, string) string{
		g.checkPlaceholderIDs,
		g.checkTitleQuality,
		g.checkTypeCounts,
		g.checkFieldPopulation,
		g.checkUniformEstimates,
		g.checkRoleCoverage,
	}
	for _, check := range checks {
		if reason := check(leaves, payload, sourceText); reason != "" {
			return &GateError{Reason: reason}
		}
	}
	return nil
}

func (g *Gate) isPlaceholder(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return true
	}
	for _, tok := range g.policy.PlaceholderTokens {
		if s == tok {
			return true
		}
	}
	return false
}

func (g *Gate) checkPlaceholderIDs(leaves []map[string]any, payload map[string]any, _ string) string {
	ids := map[string]bool{}
	for _, leaf := range leaves {
		id, _ := leaf["id"].(string)
		if g.isPlaceholder(id) {
			return fmt.Sprintf("placeholder or empty id %q", id)
		}
		if ids[id] {
			return fmt.Sprintf("duplicate id %q", id)
		}
		ids[id] = true
	}
	// Epic ids count too when the tree variant is in play.
	if epics, ok := payload["epics"].([]any); ok {
		for _, e := range epics {
			em, _ := e.(map[string]any)
			if em == nil {
				continue
			}
			if id, _ := em["id"].(string); g.isPlaceholder(id) {
				return fmt.Sprintf("placeholder or empty epic id %q", id)
			}
		}
	}
	return ""
}

func (g *Gate) checkTitleQuality(leaves []map[string]any, _ map[string]any, _ string) string {
	for _, leaf := range leaves {
		title, _ := leaf["title"].(string)
		trimmed := strings.TrimSpace(title)
		if g.isPlaceholder(trimmed) {
			return fmt.Sprintf("placeholder title %q", title)
		}
		if len(strings.Fields(trimmed)) < g.policy.MinTitleWords {
			return fmt.Sprintf("title %q too short", title)
		}
		lower := strings.ToLower(trimmed)
		for _, phrase := range g.policy.HeaderPhrases {
			if lower == phrase {
				return fmt.Sprintf("title %q is a document heading, not a work item", title)
			}
		}
	}
	return ""
}

func (g *Gate) checkTypeCounts(leaves []map[string]any, _ map[string]any, _ string) string {
	counts := map[string]int{}
	for _, leaf := range leaves {
		t, _ := leaf["type"].(string)
		counts[strings.ToLower(strings.TrimSpace(t))]++
	}
	for typ, min := range g.policy.MinTypeCounts {
		if counts[typ] < min {
			return fmt.Sprintf("need at least %d %s items, got %d", min, typ, counts[typ])
		}
	}
	return ""
}

func (g *Gate) checkFieldPopulation(leaves []map[string]any, _ map[string]any, _ string) string {
	for _, leaf := range leaves {
		populated := 0
		for _, field := range g.policy.RequiredFields {
			if v, _ := leaf[field].(string); strings.TrimSpace(v) != "" {
				populated++
			}
		}
		if populated < g.policy.MinPopulatedFields {
			id, _ := leaf["id"].(string)
			return fmt.Sprintf("item %q has only %d of %d required fields populated", id, populated, g.policy.MinPopulatedFields)
		}
	}
	return ""
}

// checkUniformEstimates rejects output where every leaf carries the same
// three-point triple — the model produced counts, not estimates.
func (g *Gate) checkUniformEstimates(leaves []map[string]any, _ map[string]any, _ string) string {
	if len(leaves) < 2 {
		return ""
	}
	firstO, firstM, firstP := estimate.PERTInputs(leaves[0])
	for _, leaf := range leaves[1:] {
		o, m, p := estimate.PERTInputs(leaf)
		if o != firstO || m != firstM || p != firstP {
			return ""
		}
	}
	return "all items carry identical estimates; differentiate per item"
}

func (g *Gate) checkRoleCoverage(leaves []map[string]any, _ map[string]any, sourceText string) string {
	present := map[constants.Role]bool{}
	for _, leaf := range leaves {
		role, _ := leaf["role"].(string)
		present[constants.Role(strings.ToLower(strings.TrimSpace(role)))] = true
	}
	lowerText := strings.ToLower(sourceText)
	for role, keywords := range g.policy.RoleTriggers {
		if present[role] {
			continue
		}
		for _, kw := range keywords {
			if containsKeyword(lowerText, kw) {
				return fmt.Sprintf("source mentions %q but no %s items present", kw, role)
			}
		}
	}
	return ""
}

// containsKeyword matches kw in text on word boundaries, so a trigger like
// "ui" never fires inside "required".
func containsKeyword(text, kw string) bool {
	for from := 0; ; {
		i := strings.Index(text[from:], kw)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(kw)
		leftOK := start == 0 || !isWordByte(text[start-1])
		rightOK := end == len(text) || !isWordByte(text[end])
		if leftOK && rightOK {
			return true
		}
		from = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
