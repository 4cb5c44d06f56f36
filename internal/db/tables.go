package db

// Table names must be unique across the database.
const (
	StoredObjectsTable = TableName("StoredObjects")
	StoredProofsTable  = TableName("StoredProofs")
	NodeStateTable     = TableName("NodeState")
	AggregatorTable    = TableName("AggregatorState")
)
