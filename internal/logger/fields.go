package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields propagated through the call chain.
const (
	// FieldJobID is the mining or training job ID
	FieldJobID = "job_id"

	// FieldStage is the pipeline stage name
	FieldStage = "stage"

	// FieldModelID is the model record ID
	FieldModelID = "model_id"

	// FieldModelType is the model family (ranking_regressor, schema_classifier)
	FieldModelType = "model_type"

	// FieldTopic is the queue topic name
	FieldTopic = "topic"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Standard metric fields used for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
