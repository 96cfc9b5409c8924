package backend

import "fmt"

// New creates a backend from the configuration. Init must be called before use.
func New(cfg Config) (Backend, error) {
	switch cfg.Type {
	case TypeLocal, "":
		return NewLocal(cfg.Location)

	case TypeS3:
		bucket, prefix := cfg.S3Bucket, cfg.S3Prefix
		if bucket == "" && cfg.Location != "" {
			var err error
			if bucket, prefix, err = ParseS3Location(cfg.Location); err != nil {
				return nil, err
			}
		}
		return NewS3(bucket, prefix, cfg.S3Region), nil

	case TypeDropbox:
		return NewDropbox(cfg.DropboxAppKey, cfg.DropboxAppSecret), nil

	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Type)
	}
}
