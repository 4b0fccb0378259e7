package planner

import (
	"os"

	"gopkg.in/yaml.v3"
)

// WritePlan writes a presentation plan to a YAML file so a run can be
// inspected or replayed.
func WritePlan(plan *PresentationPlan, path string) error {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadPlan reads a presentation plan from a YAML file.
func ReadPlan(path string) (*PresentationPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan PresentationPlan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, err
	}

	return &plan, nil
}
