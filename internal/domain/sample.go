package domain

import "time"

// TrainingSample is one verified, labeled observation collected by the
// upstream analytics/crawl pipeline. The training pipeline reads these
// rows and never mutates them.
type TrainingSample struct {
	ID                 string      `gorm:"type:text;primaryKey" json:"id"`
	URL                string      `gorm:"type:text;not null;index" json:"url"`
	FeatureVector      FloatArray  `gorm:"type:text" json:"feature_vector"`
	FeatureNames       StringArray `gorm:"type:text" json:"feature_names"`
	FeatureVersion     string      `gorm:"type:text" json:"feature_version"`
	SchemaTypes        StringArray `gorm:"type:text" json:"schema_types"`
	QualityScore       float64     `json:"quality_score"`
	RankingBefore      float64     `json:"ranking_before"`
	RankingAfter       float64     `json:"ranking_after"`
	SEOScoreBefore     float64     `gorm:"column:seo_score_before" json:"seo_score_before"`
	SEOScoreAfter      float64     `gorm:"column:seo_score_after" json:"seo_score_after"`
	OptimizationType   string      `gorm:"type:text" json:"optimization_type"`
	EffectivenessScore float64     `gorm:"index:idx_samples_effectiveness" json:"effectiveness_score"`
	Verified           bool        `gorm:"index:idx_samples_verified" json:"verified"`
	CreatedAt          time.Time   `json:"created_at"`
}

// TableName returns the database table name for TrainingSample.
func (TrainingSample) TableName() string {
	return "training_samples"
}

// RankingImprovement is the regression target: positive means the page
// moved up after optimization.
func (s *TrainingSample) RankingImprovement() float64 {
	return s.RankingBefore - s.RankingAfter
}
