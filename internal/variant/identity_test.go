package variant

import "testing"

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		rel     string
		want    Identity
		wantErr bool
	}{
		{"pkg/Foo.java", "pkg/Foo.java", false},
		{"Foo.java", "Foo.java", false},
		{"", "", true},
		{".", "", true},
		{"/abs/Foo.java", "", true},
		{"../Foo.java", "", true},
		{"..", "", true},
		{"pkg/../Foo.java", "", true},
		{"pkg//Foo.java", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got, err := ParseIdentity(tt.rel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIdentity(%q) err = %v, wantErr %v", tt.rel, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseIdentity(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}
}

func TestIdentityHelpers(t *testing.T) {
	id := Identity("varexc/opt/GlobalOptions.java")

	if !id.Within("varexc") || !id.Within("varexc/") {
		t.Errorf("%q should be within varexc", id)
	}
	if id.Within("var") || id.Within("") {
		t.Errorf("%q should not be within var or the empty dir", id)
	}
	if got := id.Rebase("varexc", "ext/varexc"); got != "ext/varexc/opt/GlobalOptions.java" {
		t.Errorf("Rebase = %q", got)
	}
	if got := id.Rebase("varexc", ""); got != "opt/GlobalOptions.java" {
		t.Errorf("Rebase to root = %q", got)
	}
	if got := id.WithSuffix(".java", ".class"); got != "varexc/opt/GlobalOptions.class" {
		t.Errorf("WithSuffix = %q", got)
	}
	if got := id.Dir(); got != "varexc/opt" {
		t.Errorf("Dir = %q", got)
	}
}
