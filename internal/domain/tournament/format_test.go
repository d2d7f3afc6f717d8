package tournament

import (
	"errors"
	"testing"
)

func TestNewFormat_DefaultRules(t *testing.T) {
	format, err := NewFormat(DefaultRules())
	if err != nil {
		t.Fatalf("new format: %v", err)
	}

	want := []struct {
		name      string
		knockout  bool
		twoLegged bool
		size      int
	}{
		{name: "League Phase"},
		{name: "Knockout Play-offs", knockout: true, twoLegged: true, size: 16},
		{name: "Round of 16", knockout: true, twoLegged: true, size: 16},
		{name: "Quarter-finals", knockout: true, twoLegged: true, size: 8},
		{name: "Semi-finals", knockout: true, twoLegged: true, size: 4},
		{name: "Final", knockout: true, size: 2},
	}
	if len(format.Templates) != len(want) {
		t.Fatalf("expected %d templates, got %d", len(want), len(format.Templates))
	}
	for idx, tpl := range format.Templates {
		if tpl.Order != idx+1 {
			t.Fatalf("template %d has order %d", idx, tpl.Order)
		}
		w := want[idx]
		if tpl.Name != w.name || tpl.IsKnockout != w.knockout || tpl.IsTwoLegged != w.twoLegged || tpl.BracketSize != w.size {
			t.Fatalf("template %d mismatch: %+v", idx, tpl)
		}
	}
	if format.First().RoundCount != 8 {
		t.Fatalf("expected 8 league rounds, got %d", format.First().RoundCount)
	}
	if format.MinTeams() != 24 {
		t.Fatalf("expected 24 min teams, got %d", format.MinTeams())
	}
	if format.DirectOrder() != 3 {
		t.Fatalf("expected direct qualifiers to enter phase 3, got %d", format.DirectOrder())
	}
}

func TestFormat_NextWalksOrderedTemplates(t *testing.T) {
	format, err := NewFormat(Rules{LeagueRounds: 3, DirectSlots: 4})
	if err != nil {
		t.Fatalf("new format: %v", err)
	}

	order := format.First().Order
	visited := []int{order}
	for {
		next, ok := format.Next(order)
		if !ok {
			break
		}
		visited = append(visited, next.Order)
		order = next.Order
	}
	if len(visited) != 3 {
		t.Fatalf("expected league, semi-finals and final, got %v", visited)
	}
	final, _ := format.Template(order)
	if _, ok := format.Next(order); ok || final.Name != "Final" {
		t.Fatalf("expected final to be last, got %+v", final)
	}
	if _, ok := format.PlayoffOrder(); ok {
		t.Fatalf("expected no playoff round")
	}
	if format.DirectOrder() != 2 {
		t.Fatalf("expected direct qualifiers to enter phase 2, got %d", format.DirectOrder())
	}
}

func TestNewFormat_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		rules Rules
	}{
		{name: "no league rounds", rules: Rules{LeagueRounds: 0, DirectSlots: 8, PlayoffSlots: 16}},
		{name: "odd playoff", rules: Rules{LeagueRounds: 8, DirectSlots: 8, PlayoffSlots: 15}},
		{name: "bracket not power of two", rules: Rules{LeagueRounds: 8, DirectSlots: 6, PlayoffSlots: 16}},
		{name: "empty bracket", rules: Rules{LeagueRounds: 8}},
		{name: "negative slots", rules: Rules{LeagueRounds: 8, DirectSlots: -2, PlayoffSlots: 8}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFormat(tc.rules)
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}
