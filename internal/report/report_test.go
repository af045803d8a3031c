package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/genprog/varbuild/internal/build"
	"github.com/genprog/varbuild/internal/harvest"
	"github.com/genprog/varbuild/internal/overlay"
	"github.com/genprog/varbuild/internal/pipeline"
	"github.com/genprog/varbuild/internal/variant"
)

func TestWrite(t *testing.T) {
	success := &pipeline.Result{
		Variant:    "variants/v1",
		Identities: []variant.Identity{"pkg/Api.java", "pkg/Foo.java", "pkg/New.java"},
		Entries: []overlay.Entry{
			{Identity: "pkg/Api.java", HadCanonical: true, Overlaid: true, Restored: true},
			{Identity: "pkg/Foo.java", HadCanonical: true, Overlaid: true, Restored: true},
			{Identity: "pkg/New.java", Overlaid: true},
		},
		Left:    []variant.Identity{"pkg/New.java"},
		Outcome: &build.Outcome{},
		Harvest: &harvest.Result{
			Copied: []string{"pkg/Foo.class", "pkg/New.class"},
			Gaps:   []harvest.Gap{{Identity: "pkg/Api.java", Artifact: "/tree/target/classes/pkg/Api.class"}},
		},
	}
	tests := []struct {
		name    string
		res     *pipeline.Result
		details bool
		want    []string
		notWant []string
	}{
		{
			name: "success",
			res:  success,
			want: []string{
				"Successfully compiled variants/v1\n",
				"harvested 2 artifact(s)",
				"gap: pkg/Api.java",
				"left in tree: pkg/New.java",
			},
			notWant: []string{"RESTORATION", "Identity"},
		},
		{
			name:    "details",
			res:     success,
			details: true,
			want:    []string{"Successfully compiled", "identity", "overlaid", "restored", "pkg/Foo.java"},
		},
		{
			name: "build failure",
			res:  &pipeline.Result{Variant: "v2", Outcome: &build.Outcome{ExitCode: 1}},
			want: []string{"Failed to compile v2 (exit status 1)"},
		},
		{
			name: "overlay failure",
			res: &pipeline.Result{
				Variant: "v3",
				Fatal:   &overlay.Error{Kind: overlay.KindBackup, Identity: "pkg/B.java", Err: errors.New("denied")},
			},
			want: []string{"Failed to compile v3 (", "pkg/B.java", "denied"},
		},
		{
			name: "restoration failure",
			res: &pipeline.Result{
				Variant:     "v4",
				Outcome:     &build.Outcome{},
				Restore:     errors.New("pkg/Foo.java: is a directory"),
				StagingKept: "/state/staging/abc/123",
				Cleanup:     errors.New("remove extension: busy"),
			},
			want: []string{
				"Failed to compile v4 (restoration failed)",
				"RESTORATION FAILED",
				"/state/staging/abc/123",
				"varbuild recover",
				"warning: cleanup failed",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tt.res, tt.details); err != nil {
				t.Fatal(err)
			}
			// Table headers may be reformatted; compare case-insensitively.
			out := buf.String()
			lower := strings.ToLower(out)
			for _, s := range tt.want {
				if !strings.Contains(lower, strings.ToLower(s)) {
					t.Errorf("output lacks %q:\n%s", s, out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(lower, strings.ToLower(s)) {
					t.Errorf("output contains %q:\n%s", s, out)
				}
			}
		})
	}
}
