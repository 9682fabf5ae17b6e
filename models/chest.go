package models

import "math/rand"

// RewardKind separates resource rewards from consumable rewards
type RewardKind string

// Reward kinds
const (
	RewardResource   RewardKind = "resource"
	RewardConsumable RewardKind = "consumable"
)

// Reward is one band of the chest table. A roll r matches when Min <= r < Max.
type Reward struct {
	Kind     RewardKind   `json:"kind"`
	Resource ResourceName `json:"resource,omitempty"`
	Stat     ImpactStat   `json:"stat,omitempty"`
	Value    int          `json:"value"`
	Min      int          `json:"min"`
	Max      int          `json:"max"`
}

// RollRange is the exclusive upper bound of a chest roll
const RollRange = 100

var chestRewards = []Reward{
	{Kind: RewardResource, Resource: Iron, Value: 4, Min: 0, Max: 10},
	{Kind: RewardResource, Resource: Silver, Value: 4, Min: 10, Max: 20},
	{Kind: RewardResource, Resource: Gold, Value: 4, Min: 20, Max: 30},
	{Kind: RewardResource, Resource: Tin, Value: 4, Min: 30, Max: 40},
	{Kind: RewardResource, Resource: Zinc, Value: 4, Min: 40, Max: 50},
	{Kind: RewardResource, Resource: Crystal, Value: 4, Min: 50, Max: 60},
	{Kind: RewardResource, Resource: Copper, Value: 4, Min: 60, Max: 70},
	{Kind: RewardConsumable, Stat: StatHealth, Value: 10, Min: 70, Max: 80},
	{Kind: RewardConsumable, Stat: StatCharge, Value: 10, Min: 80, Max: 90},
	{Kind: RewardConsumable, Stat: StatPower, Value: 10, Min: 90, Max: 100},
}

// ChestRewards returns a copy of the reward table
func ChestRewards() []Reward {
	return append([]Reward(nil), chestRewards...)
}

// RewardFor finds the band containing roll
func RewardFor(roll int) (Reward, bool) {
	for _, r := range chestRewards {
		if roll >= r.Min && roll < r.Max {
			return r, true
		}
	}
	return Reward{}, false
}

// RollReward draws a uniform roll in [0, RollRange) and returns its reward
func RollReward(rng *rand.Rand) (Reward, bool) {
	return RewardFor(rng.Intn(RollRange))
}

// applyTo grants the reward to an inventory
func (r Reward) applyTo(inv Inventory) Inventory {
	out := inv
	switch r.Kind {
	case RewardResource:
		out.Resources = inv.Resources.WithDelta(r.Resource, r.Value)
	case RewardConsumable:
		out.Consumables = addConsumable(inv.Consumables, Consumable{
			ImpactStat:  r.Stat,
			ImpactValue: r.Value,
			Quantity:    r.Value,
		}, false)
	}
	return out
}
