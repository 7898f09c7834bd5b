package game

import "math/rand"

// Luck produces the randomness factor applied to a strike, in [0.9, 1.1].
// Tests inject a fixed value.
type Luck func() float64

func DefaultLuck() float64 {
	return 0.9 + rand.Float64()*0.2
}

// ResolveImpact computes the damage that lands after mitigation. A defense
// stronger than the attack absorbs it completely; otherwise the difference
// gets through, scaled by luck.
func ResolveImpact(attack, mitigation int, luck Luck) int {
	if luck == nil {
		luck = DefaultLuck
	}
	dmg := int(float64(attack-mitigation) * luck())
	if dmg < 0 {
		return 0
	}
	return dmg
}
