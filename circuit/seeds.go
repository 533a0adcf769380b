package circuit

// SeedGroup is a predefined group applied when a model's dataset loads,
// naming heads the interpretability literature associates with a
// mechanism.
type SeedGroup struct {
	Name        string
	Description string
	Heads       []HeadPair
}

// modelSeeds maps model names to their predefined groups. The
// gpt2-small entries follow the indirect-object-identification circuit.
var modelSeeds = map[string][]SeedGroup{
	"gpt2-small": {
		{
			Name:        "Name Mover",
			Description: "Copies the indirect object's name to the final position",
			Heads:       []HeadPair{{9, 6}, {9, 9}, {10, 0}},
		},
		{
			Name:        "Negative Name Mover",
			Description: "Writes against the name moved by the name movers",
			Heads:       []HeadPair{{10, 7}, {11, 10}},
		},
		{
			Name:        "S-Inhibition",
			Description: "Suppresses attention to the duplicated subject",
			Heads:       []HeadPair{{7, 3}, {7, 9}, {8, 6}, {8, 10}},
		},
		{
			Name:        "Induction",
			Description: "Attends from a repeated token to what followed it before",
			Heads:       []HeadPair{{5, 5}, {5, 8}, {5, 9}, {6, 9}},
		},
		{
			Name:        "Duplicate Token",
			Description: "Attends from a token to its earlier duplicate",
			Heads:       []HeadPair{{0, 1}, {0, 10}, {3, 0}},
		},
		{
			Name:        "Previous Token",
			Description: "Attends to the immediately preceding position",
			Heads:       []HeadPair{{2, 2}, {4, 11}},
		},
	},
	"distilgpt2": {
		{
			Name:        "Induction",
			Description: "Attends from a repeated token to what followed it before",
			Heads:       []HeadPair{{2, 8}, {3, 1}},
		},
		{
			Name:        "Previous Token",
			Description: "Attends to the immediately preceding position",
			Heads:       []HeadPair{{1, 2}, {1, 5}},
		},
	},
}

// SeedGroupsFor returns the predefined groups for a model, or nil when
// the model has none.
func SeedGroupsFor(model string) []SeedGroup {
	return modelSeeds[model]
}

// ApplySeeds creates a model's predefined groups in the workspace,
// dropping any seed head outside the workspace bounds. Seeds come
// before user edits, so name collisions and occupied heads are skipped
// rather than treated as errors.
func (w *Workspace) ApplySeeds(model string) {
	for _, seed := range SeedGroupsFor(model) {
		g, err := w.CreateGroup(seed.Name, seed.Description)
		if err != nil {
			continue
		}
		for _, p := range seed.Heads {
			if !w.bounds.Contains(p) {
				continue
			}
			if _, grouped := w.groupOf(p); grouped {
				continue
			}
			delete(w.selected, p)
			g.heads[p] = struct{}{}
		}
	}
}
