package dto

import "govdoc/internal/asset"

// AssetResponse describes a stored image.
type AssetResponse struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// FromImage converts a normalized image stored under key.
func FromImage(key string, img *asset.Image) AssetResponse {
	return AssetResponse{
		Key:         key,
		ContentType: asset.MediaType(img.Type),
		Size:        len(img.Data),
		Width:       img.Width,
		Height:      img.Height,
	}
}
