package types

// JSONMap holds loosely structured jsonb payloads (notification data, audit blobs).
type JSONMap map[string]any
