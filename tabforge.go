// Package tabforge defines the shared configuration and model catalog for
// the tabforge synthetic-dataset generator. The pipeline itself lives in the
// dataset, infer and synth packages; this package holds the language they
// share.
package tabforge

// Model identifies one selectable backend model.
type Model struct {
	// Choice is the menu ordinal shown to the user ("1".."4").
	Choice string
	// ID is the model identifier sent to the API.
	ID string
}

// Catalog is the fixed set of selectable models, in menu order.
var Catalog = []Model{
	{Choice: "1", ID: "claude-3-opus-20240229"},
	{Choice: "2", ID: "claude-3-sonnet-20240229"},
	{Choice: "3", ID: "claude-3-haiku-20240307"},
	{Choice: "4", ID: "claude-3-5-sonnet-20240620"},
}

// DefaultModel is used when the user's choice does not match the catalog.
const DefaultModel = "claude-3-haiku-20240307"

// Actions the similarity guard can take on rows it flags.
const (
	ActionWarn   = "warn"
	ActionReject = "reject"
)

// ModelByChoice maps a menu answer to a model ID. Unknown answers fall back
// to DefaultModel without re-prompting.
func ModelByChoice(choice string) string {
	for _, m := range Catalog {
		if m.Choice == choice {
			return m.ID
		}
	}
	return DefaultModel
}

// KnownModel reports whether id is a member of the catalog.
func KnownModel(id string) bool {
	for _, m := range Catalog {
		if m.ID == id {
			return true
		}
	}
	return false
}
