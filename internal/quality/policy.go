package quality

import "github.com/presalekit/estimator/constants"

// Policy carries the vocabulary the gate's heuristics run on. Title phrases,
// placeholder tokens, and role triggers are language-specific, so deployments
// targeting another locale substitute their own Policy instead of patching
// predicate code.
type Policy struct {
	// PlaceholderTokens are identifier/title values that signal the model
	// echoed the skeleton instead of doing the work.
	PlaceholderTokens []string
	// HeaderPhrases are document-section headings that make for worthless
	// work-item titles.
	HeaderPhrases []string
	// MinTitleWords is the minimum word count of a leaf title.
	MinTitleWords int
	// MinTypeCounts requires at least N leaf items per type classification.
	MinTypeCounts map[string]int
	// RequiredFields are the leaf sub-fields counted toward population.
	RequiredFields []string
	// MinPopulatedFields is how many of RequiredFields must be non-empty on
	// every leaf.
	MinPopulatedFields int
	// RoleTriggers maps a canonical role to keywords which, when present in
	// the aggregated source text, require that role to appear in the output.
	RoleTriggers map[constants.Role][]string
	// RoleSynonyms normalizes model-emitted role labels to canonical ones.
	RoleSynonyms map[string]constants.Role
}

// DefaultPolicy is the English-vocabulary policy.
func DefaultPolicy() Policy {
	return Policy{
		PlaceholderTokens: []string{
			"string", "example", "placeholder", "lorem", "tbd", "todo", "xxx",
			"epic title", "task title", "story title",
		},
		HeaderPhrases: []string{
			"introduction", "overview", "summary", "requirements",
			"table of contents", "scope", "background", "appendix",
		},
		MinTitleWords: 2,
		MinTypeCounts: map[string]int{
			"functional":     3,
			"non_functional": 2,
		},
		RequiredFields:     []string{"title", "description", "role", "type"},
		MinPopulatedFields: 3,
		RoleTriggers: map[constants.Role][]string{
			constants.RoleQA:       {"test", "testing", "qa", "quality assurance"},
			constants.RoleDevOps:   {"deploy", "deployment", "ci/cd", "docker", "kubernetes", "infrastructure"},
			constants.RoleDesigner: {"design", "ui", "ux", "mockup", "wireframe"},
			constants.RoleFrontend: {"frontend", "front-end", "web interface", "browser"},
		},
		RoleSynonyms: map[string]constants.Role{
			"backend developer":   constants.RoleBackend,
			"back-end":            constants.RoleBackend,
			"back-end developer":  constants.RoleBackend,
			"server developer":    constants.RoleBackend,
			"frontend developer":  constants.RoleFrontend,
			"front-end":           constants.RoleFrontend,
			"front-end developer": constants.RoleFrontend,
			"web developer":       constants.RoleFrontend,
			"qa engineer":         constants.RoleQA,
			"tester":              constants.RoleQA,
			"quality assurance":   constants.RoleQA,
			"devops engineer":     constants.RoleDevOps,
			"sre":                 constants.RoleDevOps,
			"ui/ux designer":      constants.RoleDesigner,
			"ux designer":         constants.RoleDesigner,
			"ui designer":         constants.RoleDesigner,
			"business analyst":    constants.RoleAnalyst,
			"ba":                  constants.RoleAnalyst,
			"project manager":     constants.RolePM,
			"product manager":     constants.RolePM,
		},
	}
}
