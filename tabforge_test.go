package tabforge

import "testing"

func TestModelByChoice(t *testing.T) {
	tests := []struct {
		choice string
		want   string
	}{
		{"1", "claude-3-opus-20240229"},
		{"2", "claude-3-sonnet-20240229"},
		{"3", "claude-3-haiku-20240307"},
		{"4", "claude-3-5-sonnet-20240620"},
	}
	for _, tt := range tests {
		if got := ModelByChoice(tt.choice); got != tt.want {
			t.Errorf("ModelByChoice(%q) = %q, want %q", tt.choice, got, tt.want)
		}
	}
}

func TestModelByChoiceUnknownFallsBack(t *testing.T) {
	for _, choice := range []string{"", "0", "5", "opus", " 1"} {
		if got := ModelByChoice(choice); got != DefaultModel {
			t.Errorf("ModelByChoice(%q) = %q, want default %q", choice, got, DefaultModel)
		}
	}
}

func TestKnownModel(t *testing.T) {
	for _, m := range Catalog {
		if !KnownModel(m.ID) {
			t.Errorf("KnownModel(%q) = false, want true", m.ID)
		}
	}
	if KnownModel("gpt-4") {
		t.Error("KnownModel accepted a model outside the catalog")
	}
}

func TestDefaultModelInCatalog(t *testing.T) {
	if !KnownModel(DefaultModel) {
		t.Errorf("DefaultModel %q is not part of the catalog", DefaultModel)
	}
}
