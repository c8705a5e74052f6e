package app

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"millionaire-quiz-service/internal/domain"
	"millionaire-quiz-service/internal/i18n"
)

// Source is the randomness used by help generation and answer shuffling.
// *math/rand.Rand and *random.Source both satisfy it.
type Source interface {
	Intn(n int) int
}

const (
	audienceSize = 100
	// A friend draw above this value (out of 100) names a wrong answer.
	friendWrongThreshold = 80
)

// HelpGenerator produces randomized lifeline payloads biased towards the correct answer.
type HelpGenerator struct {
	rnd     Source
	catalog *i18n.Catalog
	friends []string
}

// NewHelpGenerator builds a generator. An empty friends list uses the catalog defaults.
func NewHelpGenerator(rnd Source, catalog *i18n.Catalog, friends []string) *HelpGenerator {
	if len(friends) == 0 {
		friends = catalog.Friends()
	}
	return &HelpGenerator{rnd: rnd, catalog: catalog, friends: friends}
}

// AudienceDistribution returns an integer percentage per key. Each key is rounded
// independently, so the values may sum to 99 or 101.
func (g *HelpGenerator) AudienceDistribution(keys []string, correctKey string) (map[string]int, error) {
	if err := validateKeys(keys, correctKey); err != nil {
		return nil, err
	}

	weights := make([]int, len(keys))
	sum := 0
	for i, key := range keys {
		if key == correctKey {
			weights[i] = g.between(45, 90)
		} else {
			weights[i] = g.between(1, 60)
		}
		sum += weights[i]
	}

	result := make(map[string]int, len(keys))
	for i, key := range keys {
		result[key] = int(math.Round(float64(audienceSize*weights[i]) / float64(sum)))
	}
	return result, nil
}

// FriendCall returns the friend's advice, naming the correct key about 80% of the time.
func (g *HelpGenerator) FriendCall(keys []string, correctKey string) (string, error) {
	if err := validateKeys(keys, correctKey); err != nil {
		return "", err
	}

	key := correctKey
	if g.between(1, 100) > friendWrongThreshold {
		wrong := make([]string, 0, len(keys)-1)
		for _, k := range keys {
			if k != correctKey {
				wrong = append(wrong, k)
			}
		}
		if len(wrong) == 0 {
			return "", fmt.Errorf("%w: no wrong answer left to suggest", domain.ErrInvalidInput)
		}
		key = wrong[g.rnd.Intn(len(wrong))]
	}

	name := g.friends[g.rnd.Intn(len(g.friends))]
	return g.catalog.FriendCall(name, strings.ToUpper(key)), nil
}

// FiftyFifty keeps correctKey and one random other key, in letter order.
func (g *HelpGenerator) FiftyFifty(keys []string, correctKey string) ([]string, error) {
	if err := validateKeys(keys, correctKey); err != nil {
		return nil, err
	}
	wrong := make([]string, 0, len(keys)-1)
	for _, k := range keys {
		if k != correctKey {
			wrong = append(wrong, k)
		}
	}
	if len(wrong) == 0 {
		return nil, fmt.Errorf("%w: no wrong answer left to keep", domain.ErrInvalidInput)
	}
	kept := []string{correctKey, wrong[g.rnd.Intn(len(wrong))]}
	sort.Strings(kept)
	return kept, nil
}

// between draws uniformly from [lo, hi].
func (g *HelpGenerator) between(lo, hi int) int {
	return lo + g.rnd.Intn(hi-lo+1)
}

func validateKeys(keys []string, correctKey string) error {
	if len(keys) == 0 {
		return fmt.Errorf("%w: no candidate keys", domain.ErrInvalidInput)
	}
	for _, k := range keys {
		if k == correctKey {
			return nil
		}
	}
	return fmt.Errorf("%w: correct key %q not among candidates", domain.ErrInvalidInput, correctKey)
}
