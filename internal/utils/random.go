// Package utils holds small helpers shared by the command line.
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var randomAdjectives = []string{
	"baked",
	"beveled",
	"bright",
	"calm",
	"glossy",
	"keyframed",
	"lowpoly",
	"matte",
	"nimble",
	"rigged",
	"smooth",
	"subdivided",
	"swift",
	"textured",
	"unwrapped",
	"volumetric",
}

var randomNouns = []string{
	"armature",
	"bone",
	"camera",
	"cube",
	"curve",
	"lamp",
	"lattice",
	"mesh",
	"monkey",
	"node",
	"sculpt",
	"shader",
	"suzanne",
	"vertex",
	"viewport",
	"world",
}

// RandomName returns an adjective-noun name such as "rigged-suzanne", used
// when a stash is saved without a message.
func RandomName() string {
	return fmt.Sprintf("%s-%s", randomWord(randomAdjectives), randomWord(randomNouns))
}

func randomWord(list []string) string {
	if len(list) == 0 {
		return ""
	}
	limit := big.NewInt(int64(len(list)))
	idx, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return list[0]
	}
	return list[int(idx.Int64())]
}
