package domain

import "time"

// RecommendationKind identifies which inference call produced a record.
type RecommendationKind string

const (
	RecommendationRankingImprovement RecommendationKind = "ranking_improvement"
	RecommendationSchemaTypes        RecommendationKind = "schema_types"
)

// Recommendation is an immutable audit record written for every
// inference call, capturing the model version, the input snapshot, and
// the output. Downstream feedback loops read these rows; nothing ever
// updates them.
type Recommendation struct {
	ID           string             `gorm:"type:text;primaryKey" json:"id"`
	ClientID     string             `gorm:"type:text;index" json:"client_id"`
	URL          string             `gorm:"type:text;index" json:"url"`
	ModelID      string             `gorm:"type:text;not null" json:"model_id"`
	ModelVersion string             `gorm:"type:text" json:"model_version"`
	Kind         RecommendationKind `gorm:"type:text;not null" json:"kind"`
	Payload      JSONMap            `gorm:"type:text" json:"payload"`
	CreatedAt    time.Time          `json:"created_at"`
}

// TableName returns the database table name for Recommendation.
func (Recommendation) TableName() string {
	return "recommendations"
}
