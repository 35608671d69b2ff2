package main

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/ubmi/ifc-podcast/pkg/affiliation"
)

// reviewClusters presents the scored clusters as a multi-select so the
// operator can drop false positives before the searches run. Everything
// starts selected.
func reviewClusters(scored []affiliation.ScoredCluster) ([]affiliation.ScoredCluster, error) {
	if len(scored) == 0 {
		return scored, nil
	}

	options := make([]huh.Option[int], 0, len(scored))
	selected := make([]int, 0, len(scored))
	for i, c := range scored {
		label := fmt.Sprintf("%.1f  %s (%d variations)", c.RelevanceScore, c.Representative, len(c.Variations))
		options = append(options, huh.NewOption(label, i))
		selected = append(selected, i)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[int]().
				Title("Relevant affiliation clusters").
				Description("Deselect clusters that should not drive the article search.").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("cluster review: %w", err)
	}

	keep := make(map[int]bool, len(selected))
	for _, i := range selected {
		keep[i] = true
	}

	approved := make([]affiliation.ScoredCluster, 0, len(selected))
	for i, c := range scored {
		if keep[i] {
			approved = append(approved, c)
		}
	}
	return approved, nil
}
