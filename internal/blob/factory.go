package blob

import (
	"context"
	"fmt"
	"os"
)

// Settings selects and configures a backend. Zero values fall back to the
// CLONETRACK_BLOB_* environment variables.
type Settings struct {
	Driver string
	FSRoot string
	S3     S3Config
}

// SettingsFromEnv reads backend selection from the environment:
//
//	CLONETRACK_BLOB_DRIVER: fs|s3|memory (default fs)
//	CLONETRACK_BLOB_FS_ROOT: directory root when driver=fs (default ./workbooks)
//	CLONETRACK_BLOB_S3_*: see internal/infra/blob/s3
func SettingsFromEnv() Settings {
	return Settings{
		Driver: os.Getenv("CLONETRACK_BLOB_DRIVER"),
		FSRoot: os.Getenv("CLONETRACK_BLOB_FS_ROOT"),
	}
}

// Open selects a Store implementation from settings.
func Open(ctx context.Context, s Settings) (Store, error) {
	driver := s.Driver
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(s.FSRoot)
	case DriverS3:
		if s.S3.Bucket == "" {
			return OpenS3FromEnv(ctx)
		}
		return NewS3(ctx, s.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// OpenFromEnv is Open with SettingsFromEnv.
func OpenFromEnv(ctx context.Context) (Store, error) {
	return Open(ctx, SettingsFromEnv())
}
