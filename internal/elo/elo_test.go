package elo_test

import (
	"testing"

	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/elo"
	"github.com/wordarena/backend/internal/store"
	"github.com/wordarena/backend/internal/store/storetest"
)

func testConfig() *config.Config {
	return &config.Config{
		DefaultElo:     1000,
		InitialK:       32,
		ReducedK:       16,
		GamesThreshold: 50,
		HumanK:         8,
		StandardK:      8,
		StandardModels: []string{"house-bot"},
	}
}

func TestScore(t *testing.T) {
	cases := []struct {
		name                string
		reward, worst, best float64
		want                float64
	}{
		{"winner", 1, -1, 1, 1.0},
		{"loser", -1, -1, 1, 0.0},
		{"flat field", 0, 0, 0, 0.5},
		{"middle beats the worst", 0, -1, 1, 1.0},
	}
	for _, c := range cases {
		if got := elo.Score(c.reward, c.worst, c.best); got != c.want {
			t.Errorf("%s: Score(%v,%v,%v) = %v, want %v", c.name, c.reward, c.worst, c.best, got, c.want)
		}
	}
}

func TestComputeEvenMatch(t *testing.T) {
	got := elo.Compute([]elo.Player{
		{Name: "a", Reward: 1, Prev: 1000, K: 32},
		{Name: "b", Reward: -1, Prev: 1000, K: 32},
	})
	if got[0] != 1016 || got[1] != 984 {
		t.Errorf("even match = %v, want [1016 984]", got)
	}
}

func TestComputeUnevenMatch(t *testing.T) {
	// Upset: the 900 beats the 1100. Gains and losses mirror exactly.
	got := elo.Compute([]elo.Player{
		{Name: "favorite", Reward: -1, Prev: 1100, K: 32},
		{Name: "underdog", Reward: 1, Prev: 900, K: 32},
	})
	if got[0] != 1075.69 || got[1] != 924.31 {
		t.Errorf("upset = %v, want [1075.69 924.31]", got)
	}
}

func TestComputeDrawLeavesEqualRatingsAlone(t *testing.T) {
	got := elo.Compute([]elo.Player{
		{Name: "a", Reward: 0, Prev: 1000, K: 32},
		{Name: "b", Reward: 0, Prev: 1000, K: 32},
		{Name: "c", Reward: 0, Prev: 1000, K: 32},
	})
	for i, v := range got {
		if v != 1000 {
			t.Errorf("player %d moved to %v on an all-draw", i, v)
		}
	}
}

func TestComputeSinglePlayerIsIdentity(t *testing.T) {
	got := elo.Compute([]elo.Player{{Name: "a", Reward: 1, Prev: 1234, K: 32}})
	if got[0] != 1234 {
		t.Errorf("single player = %v, want unchanged", got)
	}
}

func TestApplyFreshPlayers(t *testing.T) {
	st, _ := storetest.New(t)
	cfg := testConfig()

	gameID, err := st.CreateGameWithPlayers("NimDuel-v0", 10.0, []store.Seat{
		{Name: "alpha"}, {Name: "beta"},
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	rows, err := elo.NewUpdater(st, cfg).Apply(gameID, "NimDuel-v0", map[int]float64{0: 1, 1: -1}, 11.0)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("appended %d rows, want 2", len(rows))
	}
	for _, r := range rows {
		if r.UpdatedAt != 11.0 {
			t.Errorf("row %s updated_at = %v, want the shared stamp", r.ParticipantName, r.UpdatedAt)
		}
	}

	if got, _, _ := st.LatestRating("alpha", "NimDuel-v0"); got != 1016 {
		t.Errorf("alpha = %v, want 1016", got)
	}
	if got, _, _ := st.LatestRating("beta", "NimDuel-v0"); got != 984 {
		t.Errorf("beta = %v, want 984", got)
	}
}

func TestApplyKeysOnCatalogEnv(t *testing.T) {
	st, _ := storetest.New(t)
	cfg := testConfig()

	gameID, _ := st.CreateGameWithPlayers("BalancedSubset-v0", 10.0, []store.Seat{
		{Name: "alpha"}, {Name: "beta"},
	})
	if err := st.SetSpecificEnv(gameID, "NimDuel-v0"); err != nil {
		t.Fatalf("set specific: %v", err)
	}

	// The caller passes the catalog id; the variant the subset picked must
	// not fragment the ladder.
	if _, err := elo.NewUpdater(st, cfg).Apply(gameID, "BalancedSubset-v0", map[int]float64{0: 1, 1: -1}, 11.0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, ok, _ := st.LatestRating("alpha", "BalancedSubset-v0"); !ok {
		t.Error("no rating under the catalog id")
	}
	if _, ok, _ := st.LatestRating("alpha", "NimDuel-v0"); ok {
		t.Error("rating leaked under the variant id")
	}
}

func TestApplyKFactors(t *testing.T) {
	st, _ := storetest.New(t)
	cfg := testConfig()

	// Humanity beats a fresh agent: Humanity moves by K=8, the agent by 32.
	gameID, _ := st.CreateGameWithPlayers("NimDuel-v0", 10.0, []store.Seat{
		{Name: config.HumanityName, IsHuman: true, HumanIP: store.NullIP("9.9.9.9")},
		{Name: "alpha"},
	})
	if _, err := elo.NewUpdater(st, cfg).Apply(gameID, "NimDuel-v0", map[int]float64{0: 1, 1: -1}, 11.0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got, _, _ := st.LatestRating(config.HumanityName, "NimDuel-v0"); got != 1004 {
		t.Errorf("Humanity = %v, want 1004 (K=8)", got)
	}
	if got, _, _ := st.LatestRating("alpha", "NimDuel-v0"); got != 984 {
		t.Errorf("alpha = %v, want 984 (K=32)", got)
	}

	// Standard agents use the fixed standard K regardless of history.
	g2, _ := st.CreateGameWithPlayers("NimDuel-v0", 12.0, []store.Seat{
		{Name: "house-bot"}, {Name: "beta"},
	})
	if _, err := elo.NewUpdater(st, cfg).Apply(g2, "NimDuel-v0", map[int]float64{0: 1, 1: -1}, 13.0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got, _, _ := st.LatestRating("house-bot", "NimDuel-v0"); got != 1004 {
		t.Errorf("house-bot = %v, want 1004 (K=8)", got)
	}
}

func TestApplyReducedKPastThreshold(t *testing.T) {
	st, _ := storetest.New(t)
	cfg := testConfig()
	cfg.GamesThreshold = 1 // the seat being rated already counts

	gameID, _ := st.CreateGameWithPlayers("NimDuel-v0", 10.0, []store.Seat{
		{Name: "veteran"}, {Name: "other"},
	})
	if _, err := elo.NewUpdater(st, cfg).Apply(gameID, "NimDuel-v0", map[int]float64{0: 1, 1: -1}, 11.0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got, _, _ := st.LatestRating("veteran", "NimDuel-v0"); got != 1008 {
		t.Errorf("veteran = %v, want 1008 (K=16)", got)
	}
}
