package domain

import "time"

// ModelType identifies one of the two trained model families.
type ModelType string

const (
	ModelTypeRankingRegressor ModelType = "ranking_regressor"
	ModelTypeSchemaClassifier ModelType = "schema_classifier"
)

// ModelStatus represents the lifecycle state of a model version.
// Values include ModelStatusTesting, ModelStatusActive, and ModelStatusArchived.
type ModelStatus string

const (
	ModelStatusTesting  ModelStatus = "testing"
	ModelStatusActive   ModelStatus = "active"
	ModelStatusArchived ModelStatus = "archived"
)

// Model is one versioned training run of a model family. Rows are created
// with status testing and are only ever transitioned, never deleted; at
// most one row per Type is active at any time.
type Model struct {
	ID                      string      `gorm:"type:text;primaryKey" json:"id"`
	Name                    string      `gorm:"type:text;not null" json:"name"`
	Version                 string      `gorm:"type:text;not null" json:"version"`
	Type                    ModelType   `gorm:"type:text;not null;index:idx_models_type_status" json:"type"`
	Path                    string      `gorm:"type:text" json:"path"`
	Accuracy                float64     `json:"accuracy"`
	F1Score                 float64     `gorm:"column:f1_score" json:"f1_score"`
	MSE                     float64     `gorm:"column:mse" json:"mse"`
	MAE                     float64     `gorm:"column:mae" json:"mae"`
	SampleCount             int         `gorm:"column:training_samples" json:"training_samples"`
	TrainingDurationSeconds float64     `json:"training_duration_seconds"`
	Hyperparameters         JSONMap     `gorm:"type:text" json:"hyperparameters"`
	PerformanceMetrics      JSONMap     `gorm:"type:text" json:"performance_metrics"`
	Status                  ModelStatus `gorm:"type:text;index:idx_models_type_status;default:testing" json:"status"`
	DeployedAt              *time.Time  `json:"deployed_at,omitempty"`
	CreatedAt               time.Time   `json:"created_at"`
	UpdatedAt               time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Model.
func (Model) TableName() string {
	return "models"
}

// Hyperparameter keys shared between the trainer, registry, and
// inference engine. All values live in the Hyperparameters JSON column.
const (
	HyperFeatureNames   = "feature_names"
	HyperFeatureVersion = "feature_version"
	HyperFeatureMeans   = "feature_means"
	HyperFeatureStds    = "feature_stds"
	HyperVocabulary     = "vocabulary"
	HyperThreshold      = "threshold"
	HyperEpochs         = "epochs"
	HyperLearningRate   = "learning_rate"
)
