package tournament

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

var ErrInvalidFormat = crerr.New("invalid tournament format")

// Rules are the knobs a cup format is built from.
type Rules struct {
	LeagueRounds int `json:"league_rounds"`
	DirectSlots  int `json:"direct_slots"`
	PlayoffSlots int `json:"playoff_slots"`
	// TwoLeggedKnockout applies to the playoff and every knockout round except the final.
	TwoLeggedKnockout bool `json:"two_legged_knockout"`
	TwoLeggedFinal    bool `json:"two_legged_final"`
}

func DefaultRules() Rules {
	return Rules{
		LeagueRounds:      8,
		DirectSlots:       8,
		PlayoffSlots:      16,
		TwoLeggedKnockout: true,
	}
}

// PhaseTemplate is the static definition of one stage.
type PhaseTemplate struct {
	Order       int    `json:"order"`
	Name        string `json:"name"`
	IsKnockout  bool   `json:"is_knockout"`
	IsTwoLegged bool   `json:"is_two_legged"`
	// BracketSize is the exact number of entrants of a knockout phase; zero for the league phase.
	BracketSize int `json:"bracket_size"`
	// RoundCount is the number of matchdays the phase occupies.
	RoundCount int `json:"round_count"`
}

// Format is the ordered list of phase templates of a tournament.
type Format struct {
	Rules     Rules           `json:"rules"`
	Templates []PhaseTemplate `json:"templates"`
}

// NewFormat derives the templates from rules: a league phase, an optional playoff round and
// halving knockout rounds down to the final. Direct slots plus playoff winners must form a
// power-of-two bracket.
func NewFormat(rules Rules) (Format, error) {
	if rules.LeagueRounds < 1 {
		return Format{}, crerr.Wrapf(ErrInvalidFormat, "league rounds must be >= 1, got %d", rules.LeagueRounds)
	}
	if rules.DirectSlots < 0 || rules.PlayoffSlots < 0 {
		return Format{}, crerr.Wrap(ErrInvalidFormat, "slots must not be negative")
	}
	if rules.PlayoffSlots%2 != 0 {
		return Format{}, crerr.Wrapf(ErrInvalidFormat, "playoff slots must be even, got %d", rules.PlayoffSlots)
	}

	bracket := rules.DirectSlots + rules.PlayoffSlots/2
	if bracket < 2 || bracket&(bracket-1) != 0 {
		return Format{}, crerr.Wrapf(ErrInvalidFormat, "knockout bracket must be a power of two >= 2, got %d", bracket)
	}

	templates := []PhaseTemplate{{
		Order:      1,
		Name:       "League Phase",
		RoundCount: rules.LeagueRounds,
	}}

	if rules.PlayoffSlots > 0 {
		templates = append(templates, knockoutTemplate(len(templates)+1, "Knockout Play-offs", rules.PlayoffSlots, rules.TwoLeggedKnockout))
	}

	for size := bracket; size >= 2; size /= 2 {
		twoLegged := rules.TwoLeggedKnockout
		if size == 2 {
			twoLegged = rules.TwoLeggedFinal
		}
		templates = append(templates, knockoutTemplate(len(templates)+1, roundName(size), size, twoLegged))
	}

	return Format{Rules: rules, Templates: templates}, nil
}

func knockoutTemplate(order int, name string, size int, twoLegged bool) PhaseTemplate {
	rounds := 1
	if twoLegged {
		rounds = 2
	}
	return PhaseTemplate{
		Order:       order,
		Name:        name,
		IsKnockout:  true,
		IsTwoLegged: twoLegged,
		BracketSize: size,
		RoundCount:  rounds,
	}
}

func roundName(size int) string {
	switch size {
	case 2:
		return "Final"
	case 4:
		return "Semi-finals"
	case 8:
		return "Quarter-finals"
	default:
		return fmt.Sprintf("Round of %d", size)
	}
}

// MinTeams is the smallest league pool that fills every qualification slot.
func (f Format) MinTeams() int {
	return f.Rules.DirectSlots + f.Rules.PlayoffSlots
}

func (f Format) First() PhaseTemplate {
	if len(f.Templates) == 0 {
		return PhaseTemplate{}
	}
	return f.Templates[0]
}

func (f Format) Template(order int) (PhaseTemplate, bool) {
	for _, tpl := range f.Templates {
		if tpl.Order == order {
			return tpl, true
		}
	}
	return PhaseTemplate{}, false
}

// Next is the phase transition function: the template following order, or false after the last one.
func (f Format) Next(order int) (PhaseTemplate, bool) {
	return f.Template(order + 1)
}

// PlayoffOrder returns the order of the playoff round, or false when the format has none.
func (f Format) PlayoffOrder() (int, bool) {
	if f.Rules.PlayoffSlots == 0 {
		return 0, false
	}
	return 2, true
}

// DirectOrder is the knockout phase direct qualifiers enter.
func (f Format) DirectOrder() int {
	if _, ok := f.PlayoffOrder(); ok {
		return 3
	}
	return 2
}
