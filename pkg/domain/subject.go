package domain

// Subject is one row of a transcript's marks table. Marks are kept as the
// strings the extraction service produced; some boards print "AB" or "35*".
type Subject struct {
	Subject  string `json:"subject"`
	Obtained string `json:"obtained"`
	Max      string `json:"max"`
}

// Barcode is a decoded code found on a transcript.
type Barcode struct {
	Format string `json:"format"`
	Value  string `json:"value"`
}
