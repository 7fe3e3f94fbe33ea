// Package format defines the shared type tags used across the codec, stream,
// and compress packages.
package format

// Type identifies the element family a column holds. It is the Go form of
// the type tag table used to pick a block codec and, for the streaming
// compressor, the matching feeder.
type Type uint8

const (
	TypeBool Type = iota + 1
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeTimestamp
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "Bool"
	case TypeInt8:
		return "Int8"
	case TypeUint8:
		return "Uint8"
	case TypeInt16:
		return "Int16"
	case TypeUint16:
		return "Uint16"
	case TypeInt32:
		return "Int32"
	case TypeUint32:
		return "Uint32"
	case TypeInt64:
		return "Int64"
	case TypeUint64:
		return "Uint64"
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeTimestamp:
		return "Timestamp"
	case TypeString:
		return "String"
	default:
		return "Unknown"
	}
}

// Width returns the fixed element width in bytes, or 0 for the
// variable-length string/binary family.
func (t Type) Width() int {
	switch t {
	case TypeBool, TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64, TypeTimestamp:
		return 8
	case TypeFloat32:
		return 4
	default:
		return 0
	}
}

// IsInteger reports whether t belongs to the signed/unsigned integer family
// that the Simple-8B codec handles.
func (t Type) IsInteger() bool {
	switch t {
	case TypeInt8, TypeUint8, TypeInt16, TypeUint16, TypeInt32, TypeUint32, TypeInt64, TypeUint64:
		return true
	default:
		return false
	}
}

// CompressionType identifies a second-stage byte-level compressor, used by
// the stream package's two-stage Finalize and by the compress package.
type CompressionType uint8

const (
	CompressionNone CompressionType = iota + 1
	CompressionLZ4
	CompressionZstd
	CompressionS2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	default:
		return "Unknown"
	}
}
