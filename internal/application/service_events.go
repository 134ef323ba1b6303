package application

const (
	// eventTypeUserRegistered is emitted when a credential is created.
	eventTypeUserRegistered = "user.registered"
	// eventTypeResultRecorded is emitted on every save to the Results Store, including re-saves.
	eventTypeResultRecorded = "fraud.result.recorded"
)
