package pipeline

import (
	"context"
	"fmt"

	"github.com/rankforge/rankforge/internal/domain"
)

// StageFunc executes one pipeline stage against the mined blueprint and
// returns its result payload.
type StageFunc func(ctx context.Context, job *domain.MiningJob, bp *MinedBlueprint) (domain.JSONMap, error)

// StageDescriptor names one stage in the ordered stage table. Stages
// run strictly in declared order; the table exists so stages can be
// added or reordered without touching orchestration logic.
type StageDescriptor struct {
	Name string
	Run  StageFunc
}

// DefaultStages is the production stage table.
func DefaultStages() []StageDescriptor {
	return []StageDescriptor{
		{Name: "atom_extraction", Run: atomExtraction},
		{Name: "component_assembly", Run: componentAssembly},
		{Name: "dashboard_mapping", Run: dashboardMapping},
	}
}

// atomExtraction validates the mined atoms and reports their breakdown.
func atomExtraction(ctx context.Context, job *domain.MiningJob, bp *MinedBlueprint) (domain.JSONMap, error) {
	if len(bp.Atoms) == 0 {
		return nil, fmt.Errorf("blueprint %s has no atoms", bp.Blueprint.ID)
	}
	kinds := make(map[string]int)
	for _, a := range bp.Atoms {
		kinds[a.Kind]++
	}
	return domain.JSONMap{
		"blueprint_id": bp.Blueprint.ID,
		"atom_count":   len(bp.Atoms),
		"kinds":        kinds,
	}, nil
}

// componentAssembly checks every component references known atoms.
func componentAssembly(ctx context.Context, job *domain.MiningJob, bp *MinedBlueprint) (domain.JSONMap, error) {
	known := make(map[string]bool, len(bp.Atoms))
	for _, a := range bp.Atoms {
		known[a.ID] = true
	}
	for _, c := range bp.Components {
		for _, id := range c.AtomIDs {
			if !known[id] {
				return nil, fmt.Errorf("component %s references unknown atom %s", c.ID, id)
			}
		}
	}
	return domain.JSONMap{
		"blueprint_id":    bp.Blueprint.ID,
		"component_count": len(bp.Components),
	}, nil
}

// dashboardMapping checks every dashboard references known components.
func dashboardMapping(ctx context.Context, job *domain.MiningJob, bp *MinedBlueprint) (domain.JSONMap, error) {
	known := make(map[string]bool, len(bp.Components))
	for _, c := range bp.Components {
		known[c.ID] = true
	}
	for _, d := range bp.Dashboards {
		if len(d.ComponentIDs) == 0 {
			return nil, fmt.Errorf("dashboard %s maps no components", d.ID)
		}
		for _, id := range d.ComponentIDs {
			if !known[id] {
				return nil, fmt.Errorf("dashboard %s references unknown component %s", d.ID, id)
			}
		}
	}
	return domain.JSONMap{
		"blueprint_id":    bp.Blueprint.ID,
		"dashboard_count": len(bp.Dashboards),
	}, nil
}
