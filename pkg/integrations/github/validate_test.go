package github

import "testing"

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		ref       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"alphagov/smart-answers", "alphagov", "smart-answers", false},
		{"octo-org/repo.name_v2", "octo-org", "repo.name_v2", false},
		{"no-slash", "", "", true},
		{"/missing-owner", "", "", true},
		{"owner/", "", "", true},
		{"-starts-with-hyphen/repo", "", "", true},
		{"owner/repo with spaces", "", "", true},
	}

	for _, tt := range tests {
		owner, repo, err := ParseRepoRef(tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRepoRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if owner != tt.wantOwner || repo != tt.wantRepo {
			t.Errorf("ParseRepoRef(%q) = %q, %q; want %q, %q", tt.ref, owner, repo, tt.wantOwner, tt.wantRepo)
		}
	}
}

func TestValidateOwner(t *testing.T) {
	if err := ValidateOwner(""); err == nil {
		t.Error("empty owner should be rejected")
	}
	if err := ValidateOwner("alphagov"); err != nil {
		t.Errorf("ValidateOwner(alphagov) error: %v", err)
	}
}

func TestValidateRepo(t *testing.T) {
	if err := ValidateRepo(""); err == nil {
		t.Error("empty repo should be rejected")
	}
	if err := ValidateRepo("govuk-frontend"); err != nil {
		t.Errorf("ValidateRepo(govuk-frontend) error: %v", err)
	}
}
