package xlbook

const (
	Version   = "v0.1.0"
	Copyright = "Copyright 2025 stephenfire"
)
