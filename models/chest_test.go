package models

import "testing"

func TestChestRewardsPartitionRollRange(t *testing.T) {
	table := ChestRewards()
	if len(table) != 10 {
		t.Fatalf("len(ChestRewards()) = %d, want 10", len(table))
	}
	for roll := 0; roll < RollRange; roll++ {
		matches := 0
		for _, r := range table {
			if roll >= r.Min && roll < r.Max {
				matches++
			}
		}
		if matches != 1 {
			t.Errorf("roll %d matches %d bands, want 1", roll, matches)
		}
		if _, ok := RewardFor(roll); !ok {
			t.Errorf("RewardFor(%d) found nothing", roll)
		}
	}
	if _, ok := RewardFor(RollRange); ok {
		t.Errorf("RewardFor(%d) should be out of range", RollRange)
	}
}

func TestRewardApply(t *testing.T) {
	inv := NewInventory()

	res, _ := RewardFor(5)
	got := res.applyTo(inv)
	if got.Resources[Iron] != 4 {
		t.Errorf("iron = %d, want 4", got.Resources[Iron])
	}

	cons, _ := RewardFor(75)
	got = cons.applyTo(inv)
	want := Consumable{ImpactStat: StatHealth, ImpactValue: 10, Quantity: 10}
	if len(got.Consumables) != 1 || got.Consumables[0] != want {
		t.Errorf("consumables = %+v, want [%+v]", got.Consumables, want)
	}
	if len(inv.Consumables) != 0 || inv.Resources[Iron] != 0 {
		t.Error("applyTo modified its input")
	}
}

func TestOpenChest(t *testing.T) {
	p := newTestPlayer(t)
	target := Position{Row: 4, Col: 5}
	p = withCell(p, Cell{Row: 4, Col: 5, Type: CellChest})

	next, reward := p.OpenChest(target, testRNG())
	if reward == nil {
		t.Fatal("OpenChest returned no reward")
	}
	if next == p {
		t.Fatal("OpenChest returned the same player")
	}
	if c := cellAt(t, next, target); c.Type != CellFloor {
		t.Errorf("chest cell became %s, want floor", c.Type)
	}
	if c := cellAt(t, p, target); c.Type != CellChest {
		t.Error("OpenChest modified the original room")
	}

	switch reward.Kind {
	case RewardResource:
		if next.Inventory.Resources[reward.Resource] != reward.Value {
			t.Errorf("%s = %d, want %d", reward.Resource, next.Inventory.Resources[reward.Resource], reward.Value)
		}
	case RewardConsumable:
		if len(next.Inventory.Consumables) != 1 {
			t.Errorf("consumables = %+v, want one", next.Inventory.Consumables)
		}
	}

	again, none := next.OpenChest(target, testRNG())
	if again != next || none != nil {
		t.Error("opening a floor cell should be a no-op")
	}
}
