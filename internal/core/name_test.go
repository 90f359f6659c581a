package core

import "testing"

func TestValidGraphName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"social", true},
		{"social_graph", true},
		{"-leading-hyphen", true},
		{"_leading_underscore", true},
		{"graph-1", true},
		{"1graph", false},
		{"", false},
		{"has space", false},
		{"has:colon", false},
		{"has/slash", false},
	}
	for _, tc := range cases {
		if got := ValidGraphName(tc.name); got != tc.want {
			t.Errorf("ValidGraphName(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
