package ledger

// Event type labels. Exactly one is emitted per successful operation, except
// out-of-threshold temperature readings, which emit TemperatureViolation in
// addition to TemperatureRecorded.
const (
	EventBatchMinted = "BatchMinted"

	EventTransferInitiated = "TransferInitiated"
	EventTransferReceived  = "TransferReceived"

	EventPrescriptionIssued = "PrescriptionIssued"
	EventPrescriptionFilled = "PrescriptionFilled"

	EventInspectorAuthorized   = "InspectorAuthorized"
	EventInspectorRevoked      = "InspectorRevoked"
	EventQualityCheckPerformed = "QualityCheckPerformed"

	EventRegulatoryBodyRecognized = "RegulatoryBodyRecognized"
	EventApprovalGranted          = "ApprovalGranted"
	EventApprovalRevoked          = "ApprovalRevoked"

	EventRecallIssued   = "RecallIssued"
	EventRecallResolved = "RecallResolved"

	EventSensorAuthorized     = "SensorAuthorized"
	EventSensorRevoked        = "SensorRevoked"
	EventThresholdSet         = "ThresholdSet"
	EventTemperatureRecorded  = "TemperatureRecorded"
	EventTemperatureViolation = "TemperatureViolation"

	EventAuditEntryCreated = "AuditEntryCreated"
)
