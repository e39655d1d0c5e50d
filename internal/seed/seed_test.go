package seed

import (
	"testing"

	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/store/storetest"
)

func TestRunSeedsCatalogAndBuiltins(t *testing.T) {
	st, _ := storetest.New(t)
	cfg := &config.Config{
		Environments: []config.EnvironmentSpec{
			{ID: "NimDuel-v0", NumPlayers: 2},
			{ID: "NoSuchGame-v0", NumPlayers: 2},
		},
		StandardModels: []string{"house-bot"},
		DefaultElo:     1000,
	}

	if err := Run(st, cfg); err != nil {
		t.Fatalf("seed: %v", err)
	}

	envs, err := st.ListEnvironments()
	if err != nil {
		t.Fatalf("list environments: %v", err)
	}
	if len(envs) != 1 || envs[0].ID != "NimDuel-v0" {
		t.Fatalf("unregistered engine should be skipped: %+v", envs)
	}

	for _, name := range []string{config.HumanityName, "house-bot"} {
		if _, err := st.GetParticipant(name); err != nil {
			t.Fatalf("participant %s not seeded: %v", name, err)
		}
		elo, ok, err := st.LatestRating(name, "NimDuel-v0")
		if err != nil || !ok {
			t.Fatalf("rating for %s: ok=%v err=%v", name, ok, err)
		}
		if elo != 1000 {
			t.Fatalf("rating for %s: %v", name, elo)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	st, _ := storetest.New(t)
	cfg := &config.Config{
		Environments:   []config.EnvironmentSpec{{ID: "NimDuel-v0", NumPlayers: 2}},
		StandardModels: []string{"house-bot"},
		DefaultElo:     1000,
	}

	if err := Run(st, cfg); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := Run(st, cfg); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	rows, err := st.RecentRatings("house-bot", "NimDuel-v0", 10)
	if err != nil {
		t.Fatalf("ratings: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("reseeding must not append rating rows: %d", len(rows))
	}
}

func TestRunFailsWithEmptyCatalog(t *testing.T) {
	st, _ := storetest.New(t)
	cfg := &config.Config{
		Environments: []config.EnvironmentSpec{{ID: "NoSuchGame-v0", NumPlayers: 2}},
		DefaultElo:   1000,
	}
	if err := Run(st, cfg); err == nil {
		t.Fatal("seeding an empty catalog should fail")
	}
}
