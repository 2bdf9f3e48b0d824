package domain

import "time"

// Blueprint is the structured content artifact mined from a prompt.
// The pipeline persists blueprints and hands them to downstream
// assembly stages; it never interprets their content.
type Blueprint struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	JobID     string    `gorm:"type:text;not null;index" json:"job_id"`
	Title     string    `gorm:"type:text" json:"title"`
	Topic     string    `gorm:"type:text" json:"topic"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Blueprint.
func (Blueprint) TableName() string {
	return "blueprints"
}

// BlueprintAtom is the smallest mined content unit (a keyword, heading,
// or snippet) belonging to a blueprint.
type BlueprintAtom struct {
	ID          string  `gorm:"type:text;primaryKey" json:"id"`
	BlueprintID string  `gorm:"type:text;not null;index" json:"blueprint_id"`
	Kind        string  `gorm:"type:text;not null" json:"kind"`
	Content     string  `gorm:"type:text" json:"content"`
	Weight      float64 `json:"weight"`
	Position    int     `json:"position"`
}

// TableName returns the database table name for BlueprintAtom.
func (BlueprintAtom) TableName() string {
	return "blueprint_atoms"
}

// BlueprintComponent groups atoms into a renderable unit.
type BlueprintComponent struct {
	ID          string      `gorm:"type:text;primaryKey" json:"id"`
	BlueprintID string      `gorm:"type:text;not null;index" json:"blueprint_id"`
	Kind        string      `gorm:"type:text;not null" json:"kind"`
	AtomIDs     StringArray `gorm:"type:text" json:"atom_ids"`
	Position    int         `json:"position"`
}

// TableName returns the database table name for BlueprintComponent.
func (BlueprintComponent) TableName() string {
	return "blueprint_components"
}

// BlueprintDashboard maps components onto a page layout.
type BlueprintDashboard struct {
	ID           string      `gorm:"type:text;primaryKey" json:"id"`
	BlueprintID  string      `gorm:"type:text;not null;index" json:"blueprint_id"`
	Layout       string      `gorm:"type:text" json:"layout"`
	ComponentIDs StringArray `gorm:"type:text" json:"component_ids"`
}

// TableName returns the database table name for BlueprintDashboard.
func (BlueprintDashboard) TableName() string {
	return "blueprint_dashboards"
}
