package domain

// NumberFrequency is one row of the frequency report.
type NumberFrequency struct {
	Number    any   `json:"number" bson:"number"`
	Frequency int64 `json:"frequency" bson:"frequency"`
}
