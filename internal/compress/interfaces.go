package compress

import "context"

// Compressor probes fetched media and re-encodes files that exceed the upload ceiling.
type Compressor interface {
	Probe(ctx context.Context, path string) (*MediaInfo, error)
	Shrink(ctx context.Context, inputPath string, maxBytes int64, onProgress func(percent int)) (string, error)
}
