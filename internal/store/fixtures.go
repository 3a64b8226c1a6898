package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"capture-chat/internal/records"
)

// Fixtures is the YAML shape accepted by `capture seed`.
type Fixtures struct {
	CurrentUser  string                `yaml:"current_user"`
	Companies    []records.Company     `yaml:"companies"`
	People       []records.Person      `yaml:"people"`
	ServiceTypes []records.ServiceType `yaml:"service_types"`
	TeamMembers  []records.TeamMember  `yaml:"team_members"`
	Jobs         []JobFixture          `yaml:"jobs"`
	QuickTasks   []records.QuickTask   `yaml:"quick_tasks"`
	JobTasks     []records.JobTask     `yaml:"job_tasks"`
	ListItems    []records.ListItem    `yaml:"list_items"`
}

type JobFixture struct {
	records.Job  `yaml:",inline"`
	Deliverables []records.Deliverable `yaml:"deliverables"`
}

func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

func ParseFixtures(data []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}
	for i := range f.Jobs {
		for j := range f.Jobs[i].Deliverables {
			if f.Jobs[i].Deliverables[j].JobID == "" {
				f.Jobs[i].Deliverables[j].JobID = f.Jobs[i].ID
			}
		}
	}
	if f.CurrentUser == "" && len(f.TeamMembers) > 0 {
		f.CurrentUser = f.TeamMembers[0].ID
	}
	return f, nil
}
