package intake

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
)

func TestMergeKeepsUntouchedSlots(t *testing.T) {
	base := Snapshot{Goal: "Move to Italy", Finance: "€50k savings", Family: "two kids"}

	cases := []struct {
		name  string
		patch Patch
		want  Snapshot
		drift bool
	}{
		{
			name:  "single slot",
			patch: Patch{"finance": "€80k savings"},
			want:  Snapshot{Goal: "Move to Italy", Finance: "€80k savings", Family: "two kids"},
		},
		{
			name:  "empty string clears slot",
			patch: Patch{"family": ""},
			want:  Snapshot{Goal: "Move to Italy", Finance: "€50k savings"},
		},
		{
			name:  "unknown key dropped",
			patch: Patch{"pets": "a dog", "housing": "renting"},
			want:  Snapshot{Goal: "Move to Italy", Finance: "€50k savings", Family: "two kids", Housing: "renting"},
			drift: true,
		},
		{
			name:  "non-string value dropped",
			patch: Patch{"tax": 42, "work": nil},
			want:  base,
			drift: true,
		},
		{
			name:  "case of key matters",
			patch: Patch{"Goal": "Move to Spain"},
			want:  base,
			drift: true,
		},
		{
			name:  "empty patch",
			patch: Patch{},
			want:  base,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, rep := Merge(base, tc.patch)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("merge mismatch (-want +got):\n%s", diff)
			}
			if rep.HasDrift() != tc.drift {
				t.Fatalf("HasDrift=%v want %v (report %+v)", rep.HasDrift(), tc.drift, rep)
			}
		})
	}

	if base.Finance != "€50k savings" || base.Housing != "" {
		t.Fatalf("input snapshot was mutated: %+v", base)
	}
}

func TestMergeReportListsKeys(t *testing.T) {
	_, rep := Merge(EmptySnapshot(), Patch{"goal": "x", "zzz": "y", "aaa": "z", "tax": 1.5})
	require.Equal(t, []Category{CategoryGoal}, rep.Applied)
	require.Equal(t, []string{"aaa", "zzz"}, rep.UnknownKeys)
	require.Equal(t, []string{"tax"}, rep.NonString)
}

func TestAsPatchRoundTrips(t *testing.T) {
	s := Snapshot{Goal: "g", Tax: "t", Clarifications: "need visa type"}
	got, rep := Merge(Snapshot{Finance: "stale"}, s.AsPatch())
	require.False(t, rep.HasDrift())
	require.Equal(t, s, got)
	require.NoError(t, RequireComplete(s.AsPatch()))
}

func TestRequireComplete(t *testing.T) {
	p := EmptySnapshot().AsPatch()
	delete(p, "healthcare")
	err := RequireComplete(p)
	require.Error(t, err)
	require.Contains(t, err.Error(), "healthcare")

	p = EmptySnapshot().AsPatch()
	p["goal"] = []any{"a"}
	require.Error(t, RequireComplete(p))
}

func TestDecodeSnapshot(t *testing.T) {
	full := `{"goal":"g","finance":"","family":"","housing":"","work":"","immigration":"","education":"","tax":"","healthcare":"","other":"","outstanding_clarifications":""}`
	s, err := DecodeSnapshot([]byte(full))
	require.NoError(t, err)
	require.Equal(t, "g", s.Goal)

	for name, raw := range map[string]string{
		"missing slot": `{"goal":"g"}`,
		"null":         `null`,
		"garbage":      `{"goal":`,
		"null slot":    `{"goal":null,"finance":"","family":"","housing":"","work":"","immigration":"","education":"","tax":"","healthcare":"","other":"","outstanding_clarifications":""}`,
	} {
		if _, err := DecodeSnapshot([]byte(raw)); !errors.Is(err, pkgerrors.ErrCorruptState) {
			t.Fatalf("%s: expected ErrCorruptState, got %v", name, err)
		}
	}
}

func TestCategoryParsing(t *testing.T) {
	for _, c := range Categories {
		got, ok := ParseCategory(string(c))
		if !ok || got != c {
			t.Fatalf("ParseCategory(%q) = %q,%v", c, got, ok)
		}
	}
	if _, ok := ParseCategory(" Finance "); ok {
		t.Fatalf("ParseCategory should match exactly")
	}
	require.Equal(t, CategoryFinance, CategoryOrOther(" Finance "))
	require.Equal(t, CategoryOther, CategoryOrOther("pets"))
	require.Len(t, EmptySnapshot().Map(), len(Categories))
}
