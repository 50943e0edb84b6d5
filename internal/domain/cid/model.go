package cid

// Entry is a row of the global CID-10 catalog. Codes are stored normalized
// (trimmed, upper case).
type Entry struct {
	Code        string  `db:"code" json:"code"`
	Description string  `db:"description" json:"description"`
	Category    *string `db:"category" json:"category"`
}
