package main

import (
	"fmt"

	"github.com/opencommander/commander-engine-go/internal/game"
	"github.com/opencommander/commander-engine-go/internal/game/mana"
	"github.com/opencommander/commander-engine-go/internal/game/rules"
)

// starterDeck stocks a seat with a small mono-green list and a
// commander. It stands in until real decklists are wired to the join
// flow.
func starterDeck(e *game.Engine, player rules.PlayerID) error {
	commander, err := game.NewCardDefinition("Thorn Elemental", "{5}{G}{G}", game.TypeCreature,
		game.WithSuperTypes(game.SuperLegendary),
		game.WithPT(7, 7),
		game.WithAbilities(game.AbilityTrample))
	if err != nil {
		return fmt.Errorf("commander definition: %w", err)
	}
	id, err := e.AddCard(commander, player, game.ZoneCommand)
	if err != nil {
		return err
	}
	if err := e.SetCommander(id); err != nil {
		return err
	}

	type entry struct {
		count int
		name  string
		cost  string
		types game.CardType
		opts  []game.CardOption
	}
	list := []entry{
		{24, "Forest", "", game.TypeLand,
			[]game.CardOption{game.WithManaProduction(mana.ColorSet(0).Add(mana.Green))}},
		{8, "Llanowar Elves", "{G}", game.TypeCreature,
			[]game.CardOption{game.WithPT(1, 1), game.WithManaProduction(mana.ColorSet(0).Add(mana.Green))}},
		{8, "Grizzly Bears", "{1}{G}", game.TypeCreature,
			[]game.CardOption{game.WithPT(2, 2)}},
		{6, "Rampaging Brontodon", "{5}{G}{G}", game.TypeCreature,
			[]game.CardOption{game.WithPT(7, 7), game.WithAbilities(game.AbilityTrample)}},
	}
	for _, en := range list {
		for i := 0; i < en.count; i++ {
			def, err := game.NewCardDefinition(en.name, en.cost, en.types, en.opts...)
			if err != nil {
				return fmt.Errorf("%s definition: %w", en.name, err)
			}
			if _, err := e.AddCard(def, player, game.ZoneLibrary); err != nil {
				return err
			}
		}
	}
	return nil
}
