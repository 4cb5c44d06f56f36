package logging

const (
	// FieldError can be used instead of Err(err) if only the message string
	// is available.
	FieldError = "err"

	FieldComponent = "component"

	FieldNodeId    = "nodeId"
	FieldPeerId    = "peerId"
	FieldChannelId = "channelId"
	FieldContract  = "contract"

	FieldRoot      = "root"
	FieldEpoch     = "epoch"
	FieldSequence  = "sequence"
	FieldObjectId  = "objectId"
	FieldProofHash = "proofHash"

	FieldAttempt  = "attempt"
	FieldDuration = "duration"
	FieldReplicas = "replicas"
)
