package storage

import "github.com/hammamikhairi/buildpace/internal/domain"

// Builtins returns the build orders installed on first run.
func Builtins() []domain.BuildOrder {
	return []domain.BuildOrder{
		englishFastFeudal(),
		frenchKnightRush(),
	}
}

func englishFastFeudal() domain.BuildOrder {
	return domain.BuildOrder{
		ID:           "english-fast-feudal",
		Name:         "English Fast Feudal",
		Civilization: "English",
		Difficulty:   "Beginner",
		Description:  "Safe two-TC style opener into a quick Feudal Age with longbows.",
		Enabled:      true,
		Steps: []domain.Step{
			{ID: "eff-1", Description: "6 villagers to sheep, scout looks for more sheep", Timing: "0:00",
				Resources: &domain.Resources{Food: 6, Villagers: 6}},
			{ID: "eff-2", Description: "Next 4 villagers build a farm-side mill and gather berries", Timing: "0:45",
				Resources: &domain.Resources{Food: 10, Villagers: 10}},
			{ID: "eff-3", Description: "6 villagers to wood, build a lumber camp", Timing: "1:30",
				Resources: &domain.Resources{Food: 10, Wood: 6, Villagers: 16}},
			{ID: "eff-4", Description: "Next 3 villagers to gold, build a mining camp", Timing: "2:15",
				Resources: &domain.Resources{Food: 10, Wood: 6, Gold: 3, Villagers: 19}},
			{ID: "eff-5", Description: "Age up with the Council Hall", Timing: "3:45",
				Resources: &domain.Resources{Food: 10, Wood: 8, Gold: 4, Villagers: 22, Builders: 2}},
			{ID: "eff-6", Description: "Queue longbows, research Wheelbarrow", Timing: "5:00",
				Resources: &domain.Resources{Food: 12, Wood: 10, Gold: 4, Villagers: 26}},
		},
		Branches: []domain.Branch{
			{
				ID: "vs-rush", Name: "Versus early rush", Trigger: "Enemy scout with spearmen before 4:00",
				StartStepIndex: 0,
				Steps: []domain.Step{
					{ID: "vr-1", Description: "Palisade the wood line", Timing: "3:30"},
					{ID: "vr-2", Description: "Second barracks, mass spearmen", Timing: "4:15"},
					{ID: "vr-3", Description: "Tower the gold", Timing: "5:00"},
				},
			},
		},
	}
}

func frenchKnightRush() domain.BuildOrder {
	return domain.BuildOrder{
		ID:           "french-knight-rush",
		Name:         "French Feudal Knights",
		Civilization: "French",
		Difficulty:   "Intermediate",
		Description:  "Fast School of Cavalry into royal knight pressure.",
		Enabled:      true,
		Steps: []domain.Step{
			{ID: "fkr-1", Description: "All villagers to sheep", Timing: "0:00",
				Resources: &domain.Resources{Food: 6, Villagers: 6}},
			{ID: "fkr-2", Description: "Build a lumber camp, 4 to wood", Timing: "1:00",
				Resources: &domain.Resources{Food: 6, Wood: 4, Villagers: 10}},
			{ID: "fkr-3", Description: "Mining camp, 4 to gold", Timing: "2:00",
				Resources: &domain.Resources{Food: 8, Wood: 4, Gold: 4, Villagers: 16}},
			{ID: "fkr-4", Description: "Age up with the School of Cavalry", Timing: "4:00",
				Resources: &domain.Resources{Food: 8, Wood: 6, Gold: 6, Villagers: 20}},
			{ID: "fkr-5", Description: "Stable, first royal knights", Timing: "5:15",
				Resources: &domain.Resources{Food: 10, Wood: 6, Gold: 8, Villagers: 24}},
		},
	}
}
