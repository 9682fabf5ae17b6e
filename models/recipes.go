package models

import "time"

// ImpactStat is the stat a consumable improves
type ImpactStat string

// Consumable stats
const (
	StatHealth ImpactStat = "health"
	StatCharge ImpactStat = "charge"
	StatPower  ImpactStat = "power"
	StatBonus  ImpactStat = "bonus"
)

// Consumable is a stack of identical consumables
type Consumable struct {
	ImpactStat  ImpactStat `json:"impact_stat"`
	ImpactValue int        `json:"impact_value"`
	Quantity    int        `json:"quantity"`
}

// Matches reports whether two consumables stack together
func (c Consumable) Matches(other Consumable) bool {
	return c.ImpactStat == other.ImpactStat && c.ImpactValue == other.ImpactValue
}

// Recipe turns resources into a consumable
type Recipe struct {
	Stat      ImpactStat    `json:"stat"`
	Tier      int           `json:"tier"`
	Cost      Resources     `json:"cost"`
	Quantity  int           `json:"quantity"`
	CraftTime time.Duration `json:"craft_time"`
	Impact    int           `json:"impact"`
}

// Product returns the consumable stack the recipe yields
func (r Recipe) Product() Consumable {
	return Consumable{ImpactStat: r.Stat, ImpactValue: r.Impact, Quantity: r.Quantity}
}

var recipes = []Recipe{
	{Stat: StatHealth, Tier: 1, Cost: Resources{Copper: 3}, Quantity: 1, CraftTime: 1 * time.Second, Impact: 10},
	{Stat: StatHealth, Tier: 2, Cost: Resources{Tin: 5, Copper: 3}, Quantity: 1, CraftTime: 2 * time.Second, Impact: 20},
	{Stat: StatCharge, Tier: 1, Cost: Resources{Iron: 5, Crystal: 1}, Quantity: 1, CraftTime: 1 * time.Second, Impact: 10},
	{Stat: StatCharge, Tier: 2, Cost: Resources{Iron: 5, Crystal: 1, Copper: 5}, Quantity: 1, CraftTime: 3 * time.Second, Impact: 20},
	{Stat: StatPower, Tier: 1, Cost: Resources{Iron: 3, Silver: 3, Crystal: 1}, Quantity: 1, CraftTime: 2 * time.Second, Impact: 10},
	{Stat: StatPower, Tier: 2, Cost: Resources{Iron: 3, Gold: 3, Crystal: 1}, Quantity: 1, CraftTime: 4 * time.Second, Impact: 20},
	{Stat: StatBonus, Tier: 1, Cost: Resources{Zinc: 2, Crystal: 2}, Quantity: 1, CraftTime: 5 * time.Second, Impact: 1},
	{Stat: StatBonus, Tier: 2, Cost: Resources{Zinc: 5, Crystal: 2}, Quantity: 1, CraftTime: 5 * time.Second, Impact: 2},
}

// Recipes returns a copy of the recipe table
func Recipes() []Recipe {
	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		r.Cost = r.Cost.Clone()
		out[i] = r
	}
	return out
}

// RecipesFor returns the recipes that produce stat
func RecipesFor(stat ImpactStat) []Recipe {
	var out []Recipe
	for _, r := range Recipes() {
		if r.Stat == stat {
			out = append(out, r)
		}
	}
	return out
}

// FindRecipe looks up a recipe by stat and tier
func FindRecipe(stat ImpactStat, tier int) (Recipe, bool) {
	for _, r := range RecipesFor(stat) {
		if r.Tier == tier {
			return r, true
		}
	}
	return Recipe{}, false
}
