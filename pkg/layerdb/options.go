package layerdb

import (
	"fmt"
	"log/slog"

	"layerdb/internal/crypto"
	"layerdb/internal/logging"
	"layerdb/internal/store"
	boltstore "layerdb/internal/store/bolt"
	"layerdb/internal/store/snapfile"
)

// Formats accepted by WithFormat.
const (
	FormatSnapfile = snapfile.Name
	FormatBolt     = boltstore.Name
)

// Option configures Load and New.
type Option func(*options)

type options struct {
	format string
	sync   bool
	key    []byte
	logger *slog.Logger
}

func defaultOptions() options {
	return options{
		format: FormatSnapfile,
		sync:   true,
	}
}

// WithFormat selects the on-disk format: FormatSnapfile (default) or
// FormatBolt. A file must be loaded with the format that wrote it.
func WithFormat(format string) Option {
	return func(o *options) { o.format = format }
}

// WithSync controls whether dumps fsync the file and its directory.
// Defaults to true.
func WithSync(sync bool) Option {
	return func(o *options) { o.sync = sync }
}

// WithKey encrypts snapshots with a crypto.KeySize-byte key. Only the
// snapfile format supports encryption.
func WithKey(key []byte) Option {
	return func(o *options) { o.key = append([]byte(nil), key...) }
}

// WithLogger overrides the logger. The default is the "layerdb" component
// logger, which follows the process-wide slog default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func (o *options) backend() (store.Backend, error) {
	switch o.format {
	case "", FormatSnapfile:
		var box *crypto.Box
		if o.key != nil {
			var err error
			if box, err = crypto.NewBox(o.key); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
			}
		}
		return snapfile.New(snapfile.Options{Sync: o.sync, Box: box}), nil
	case FormatBolt:
		if o.key != nil {
			return nil, fmt.Errorf("%w: format %q does not support encryption", ErrUnsupported, FormatBolt)
		}
		return boltstore.New(boltstore.Options{Sync: o.sync}), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrUnsupported, o.format)
	}
}

func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return logging.For("layerdb")
}
