package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{name: "unset", raw: "", want: time.Minute},
		{name: "go_duration", raw: "90s", want: 90 * time.Second},
		{name: "bare_seconds", raw: "5", want: 5 * time.Second},
		{name: "garbage", raw: "soon", want: time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tc.raw)
			if got := Duration("TEST_DURATION", time.Minute); got != tc.want {
				t.Fatalf("Duration(%q)=%v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestListAndBool(t *testing.T) {
	t.Setenv("TEST_LIST", " a, ,b ")
	got := List("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List=%v", got)
	}
	t.Setenv("TEST_BOOL", "on")
	if !Bool("TEST_BOOL", false) {
		t.Fatalf("Bool(on) should be true")
	}
	t.Setenv("TEST_INT", "x")
	if Int("TEST_INT", 7) != 7 {
		t.Fatalf("Int should fall back on parse failure")
	}
}
