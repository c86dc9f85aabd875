package competition

import (
	"errors"
	"sort"

	"github.com/clubdeck/competition-engine/models"
)

var ErrNotEnoughTeams = errors.New("not enough teams to generate groups (minimum 2 non-substitute teams)")

// SplitIntoGroups распределяет несубститутные команды по groupCount зонам.
//
// Команды упорядочиваются по посеву (nil — в конец), затем по display_order,
// и раздаются «змейкой», чтобы сеяные команды разошлись по разным зонам.
// Размеры зон отличаются не более чем на единицу.
func SplitIntoGroups(teams []*models.Team, groupCount int) ([][]*models.Team, error) {
	active := make([]*models.Team, 0, len(teams))
	for _, t := range teams {
		if !t.IsSubstitute {
			active = append(active, t)
		}
	}
	if len(active) < 2 {
		return nil, ErrNotEnoughTeams
	}
	if groupCount < 1 {
		groupCount = 1
	}
	if groupCount > len(active) {
		groupCount = len(active)
	}

	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		switch {
		case a.SeedNumber != nil && b.SeedNumber != nil:
			if *a.SeedNumber != *b.SeedNumber {
				return *a.SeedNumber < *b.SeedNumber
			}
		case a.SeedNumber != nil:
			return true
		case b.SeedNumber != nil:
			return false
		}
		return a.DisplayOrder < b.DisplayOrder
	})

	groups := make([][]*models.Team, groupCount)
	idx, dir := 0, 1
	for _, team := range active {
		groups[idx] = append(groups[idx], team)
		next := idx + dir
		if next == groupCount || next < 0 {
			dir = -dir // змейка: A..D, D..A, ...
		} else {
			idx = next
		}
	}
	return groups, nil
}

// RoundRobinPairs возвращает все неупорядоченные пары индексов [0,n) в
// стабильном порядке. Для n команд это ровно n*(n-1)/2 пар.
func RoundRobinPairs(n int) [][2]int {
	pairs := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}
