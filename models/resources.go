package models

import "strings"

// ResourceName names a minable resource
type ResourceName string

// Resource names
const (
	Stone   ResourceName = "stone"
	Iron    ResourceName = "iron"
	Silver  ResourceName = "silver"
	Gold    ResourceName = "gold"
	Tin     ResourceName = "tin"
	Zinc    ResourceName = "zinc"
	Crystal ResourceName = "crystal"
	Copper  ResourceName = "copper"
)

// ResourceNames lists all resources in display order
var ResourceNames = []ResourceName{Stone, Iron, Silver, Gold, Tin, Zinc, Crystal, Copper}

// BlockCost is the number of resource units pressed into one block
const BlockCost = 9

// VeinSize is the amount of the embedded resource in a full vein or placed block
const VeinSize = 9

// Valid reports whether r is a known resource
func (r ResourceName) Valid() bool {
	for _, name := range ResourceNames {
		if name == r {
			return true
		}
	}
	return false
}

// Resources maps resource names to counts. Treat values as immutable and
// use the With* helpers, which copy.
type Resources map[ResourceName]int

// NewResources returns a counter with every resource at zero
func NewResources() Resources {
	r := make(Resources, len(ResourceNames))
	for _, name := range ResourceNames {
		r[name] = 0
	}
	return r
}

// Clone returns an independent copy
func (r Resources) Clone() Resources {
	if r == nil {
		return nil
	}
	out := make(Resources, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Total sums every counter
func (r Resources) Total() int {
	total := 0
	for _, v := range r {
		total += v
	}
	return total
}

// WithAdded returns a copy with other added key by key
func (r Resources) WithAdded(other Resources) Resources {
	out := r.Clone()
	if out == nil {
		out = NewResources()
	}
	for k, v := range other {
		out[k] += v
	}
	return out
}

// WithDelta returns a copy with n added to one counter, floored at zero
func (r Resources) WithDelta(name ResourceName, n int) Resources {
	out := r.Clone()
	if out == nil {
		out = NewResources()
	}
	out[name] += n
	if out[name] < 0 {
		out[name] = 0
	}
	return out
}

// Vein returns the resource map of a wall holding a full vein of name.
// Stone is always present.
func Vein(name ResourceName) Resources {
	r := Resources{Stone: 0}
	r[name] = VeinSize
	return r
}

// BlockName names a crafted block, "<resource>Block"
type BlockName string

// BlockNames lists the craftable blocks. Copper has no block form.
var BlockNames = []BlockName{
	"stoneBlock", "ironBlock", "silverBlock", "goldBlock", "tinBlock", "zincBlock", "crystalBlock",
}

// BlockFor returns the block crafted from resource r
func BlockFor(r ResourceName) (BlockName, bool) {
	name := BlockName(string(r) + "Block")
	return name, name.Valid()
}

// Valid reports whether b is a known block
func (b BlockName) Valid() bool {
	for _, name := range BlockNames {
		if name == b {
			return true
		}
	}
	return false
}

// Resource returns the resource embedded by the block
func (b BlockName) Resource() ResourceName {
	return ResourceName(strings.TrimSuffix(string(b), "Block"))
}

// Blocks maps block names to counts
type Blocks map[BlockName]int

// NewBlocks returns a counter with every block at zero
func NewBlocks() Blocks {
	b := make(Blocks, len(BlockNames))
	for _, name := range BlockNames {
		b[name] = 0
	}
	return b
}

// Clone returns an independent copy
func (b Blocks) Clone() Blocks {
	if b == nil {
		return nil
	}
	out := make(Blocks, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// WithDelta returns a copy with n added to one counter, floored at zero
func (b Blocks) WithDelta(name BlockName, n int) Blocks {
	out := b.Clone()
	if out == nil {
		out = NewBlocks()
	}
	out[name] += n
	if out[name] < 0 {
		out[name] = 0
	}
	return out
}
