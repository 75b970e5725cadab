package models

import "time"

// Upload is one journal entry describing a blob accepted by the file service.
type Upload struct {
	ID           int64     `json:"id"`
	Service      string    `json:"service"`
	StoredName   string    `json:"stored_name"`
	OriginalName string    `json:"original_name,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	SHA256       string    `json:"sha256"`
	MediaType    string    `json:"media_type,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Reference returns the namespaced path of the stored blob.
func (u Upload) Reference() string {
	return u.Service + "/" + u.StoredName
}
