// Package roster holds the candidate trainer and validator pools a
// simulated round draws its participants from.
package roster

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/pelletier/go-toml"
)

var ErrEmptyAddress = errors.New("participant address is empty")

type Participant struct {
	Address string `toml:"address" json:"address"`
	Name    string `toml:"name"    json:"name"`
}

type Roster struct {
	Trainers   []Participant `toml:"trainers"   json:"trainers"`
	Validators []Participant `toml:"validators" json:"validators"`
}

// Default returns the built-in local devnet pools.
func Default() Roster {
	return Roster{
		Trainers: []Participant{
			{Address: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", Name: "Trainer-Alpha"},
			{Address: "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC", Name: "Trainer-Beta"},
			{Address: "0x90F79bf6EB2c4f870365E785982E1f101E93b906", Name: "Trainer-Gamma"},
			{Address: "0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65", Name: "Trainer-Delta"},
			{Address: "0x9965507D1a55bcC2695C58ba16FB37d819B0A4dc", Name: "Trainer-Epsilon"},
		},
		Validators: []Participant{
			{Address: "0x976EA74026E726554dB657fA54763abd0C3a0aa9", Name: "Validator-Prime"},
			{Address: "0x14dC79964da2C08b23698B3D3cc7Ca32193d9955", Name: "Validator-Secondary"},
			{Address: "0x23618e81E3f5cdF7f54C3d65f7FBc0aBf5B21E8f", Name: "Validator-Tertiary"},
		},
	}
}

// Load reads a roster from a TOML file with [[trainers]] and [[validators]]
// tables.
func Load(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, fmt.Errorf("error reading roster file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return Roster{}, fmt.Errorf("error parsing roster file: %w", err)
	}

	var r Roster
	if err := tree.Unmarshal(&r); err != nil {
		return Roster{}, fmt.Errorf("error unmarshaling roster: %w", err)
	}

	for _, p := range append(append([]Participant{}, r.Trainers...), r.Validators...) {
		if p.Address == "" {
			return Roster{}, fmt.Errorf("%w: %q", ErrEmptyAddress, p.Name)
		}
	}

	return r, nil
}

// Sample draws between lo and hi distinct participants from pool. Both
// bounds are clamped to the pool size, so a pool smaller than lo is
// returned whole.
func Sample(rng *rand.Rand, pool []Participant, lo, hi int) []Participant {
	n := len(pool)
	hi = min(hi, n)
	lo = min(lo, hi)
	if hi <= 0 {
		return nil
	}

	k := lo + rng.IntN(hi-lo+1)

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := range k {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	sample := make([]Participant, k)
	for i := range k {
		sample[i] = pool[idx[i]]
	}

	return sample
}
