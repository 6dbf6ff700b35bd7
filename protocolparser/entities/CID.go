package entities

// CID is one entry of the diagnosis lookup table
type CID struct {
	Code    string `json:"cid"`
	Meaning string `json:"significado"`
}

// Tables is the result of one complete load of both reference sheets
type Tables struct {
	Protocols []ProtocolRow
	CIDs      []CID
}
