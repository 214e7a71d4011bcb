package model

import (
	"fmt"
	"strings"
)

// EnglishLevel is a CEFR proficiency tier, or LevelUnknown for users
// that have not been diagnosed yet.
type EnglishLevel string

const (
	LevelUnknown EnglishLevel = "unknown"
	LevelA1      EnglishLevel = "A1"
	LevelA2      EnglishLevel = "A2"
	LevelB1      EnglishLevel = "B1"
	LevelB2      EnglishLevel = "B2"
	LevelC1      EnglishLevel = "C1"
	LevelC2      EnglishLevel = "C2"
)

// Levels lists the real levels in ascending order.
var Levels = []EnglishLevel{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// ParseLevel accepts a level in any case ("b1", "B1", "Unknown").
func ParseLevel(s string) (EnglishLevel, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(LevelUnknown)) {
		return LevelUnknown, nil
	}
	l := EnglishLevel(strings.ToUpper(s))
	if l.Rank() < 0 {
		return "", fmt.Errorf("invalid english level %q", s)
	}
	return l, nil
}

// Rank returns the position of l in Levels, or -1 for unknown and invalid values.
func (l EnglishLevel) Rank() int {
	for i, lvl := range Levels {
		if lvl == l {
			return i
		}
	}
	return -1
}

// Known reports whether l is one of A1..C2.
func (l EnglishLevel) Known() bool {
	return l.Rank() >= 0
}

// Valid reports whether l is a real level or the unknown sentinel.
func (l EnglishLevel) Valid() bool {
	return l == LevelUnknown || l.Known()
}

// Next returns the level immediately above l, clamped at C2.
// Unknown levels have no successor and are returned unchanged.
func (l EnglishLevel) Next() EnglishLevel {
	r := l.Rank()
	if r < 0 {
		return l
	}
	if r == len(Levels)-1 {
		return l
	}
	return Levels[r+1]
}

// Above reports whether l ranks strictly higher than other.
func (l EnglishLevel) Above(other EnglishLevel) bool {
	return l.Rank() > other.Rank()
}

func (l EnglishLevel) String() string {
	return string(l)
}
