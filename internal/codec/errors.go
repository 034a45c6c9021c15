package codec

import "errors"

var (
	// ErrPayloadTooLarge is returned by Encode when the payload exceeds Config.MaxPayloadBytes.
	ErrPayloadTooLarge = errors.New("codec: payload too large")
	// ErrReservedNameCollision is returned by Merge for attribute names using the reserved prefix.
	ErrReservedNameCollision = errors.New("codec: attribute name uses reserved prefix")
	// ErrInvalidAttribute is returned by Merge for empty attribute names.
	ErrInvalidAttribute = errors.New("codec: invalid attribute name")
	// ErrMalformedRecord means the stored columns do not follow the chunk layout.
	ErrMalformedRecord = errors.New("codec: malformed record")
	// ErrCorruptRecord means the reassembled payload fails the CRC check.
	ErrCorruptRecord = errors.New("codec: corrupt record")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("codec: invalid config")
)
