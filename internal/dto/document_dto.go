package dto

import "time"

type DocumentResponse struct {
	Filename     string    `json:"filename"`
	DocumentType string    `json:"document_type"`
	FileSize     int64     `json:"file_size"`
	UploadTime   time.Time `json:"upload_time"`
}

type UploadDocumentResponse struct {
	Message      string `json:"message"`
	Filename     string `json:"filename"`
	DocumentType string `json:"document_type"`
}

type DocumentListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
}
