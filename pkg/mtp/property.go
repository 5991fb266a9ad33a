package mtp

import (
	"fmt"
	"math"
	"slices"
	"unicode/utf16"

	"github.com/google/uuid"
)

// PropertyKey identifies a device property: a format GUID plus a property
// index within that format.
type PropertyKey struct {
	FmtID uuid.UUID
	PID   uint32
}

// String returns the short name of a well-known key, or "{fmtid} pid".
func (k PropertyKey) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("{%s} %d", k.FmtID, k.PID)
}

// VarType is the type tag of a PropVariant.
type VarType uint16

// Supported variant types. Values follow the VARENUM numbering used by the
// device property APIs.
const (
	VTEmpty  VarType = 0
	VTInt32  VarType = 3
	VTFloat  VarType = 4
	VTBool   VarType = 11
	VTUint32 VarType = 19
	VTUint64 VarType = 21
	VTString VarType = 31
	VTGUID   VarType = 72
)

func (t VarType) String() string {
	switch t {
	case VTEmpty:
		return "empty"
	case VTInt32:
		return "int32"
	case VTFloat:
		return "float32"
	case VTBool:
		return "bool"
	case VTUint32:
		return "uint32"
	case VTUint64:
		return "uint64"
	case VTString:
		return "string"
	case VTGUID:
		return "guid"
	default:
		return fmt.Sprintf("vt(%d)", uint16(t))
	}
}

// PropVariant is a single typed property value. Text is held as UTF-16 code
// units, the encoding devices report it in.
type PropVariant struct {
	vt   VarType
	bits uint64
	text []uint16
	guid uuid.UUID
}

// StringValue returns a UTF-16 text variant.
func StringValue(s string) PropVariant {
	return PropVariant{vt: VTString, text: utf16.Encode([]rune(s))}
}

// UTF16Value returns a text variant from raw UTF-16 code units. A trailing
// NUL terminator, if present, is dropped.
func UTF16Value(units []uint16) PropVariant {
	if i := slices.Index(units, 0); i >= 0 {
		units = units[:i]
	}
	return PropVariant{vt: VTString, text: slices.Clone(units)}
}

// Uint32Value returns an unsigned 32-bit variant.
func Uint32Value(v uint32) PropVariant { return PropVariant{vt: VTUint32, bits: uint64(v)} }

// Int32Value returns a signed 32-bit variant.
func Int32Value(v int32) PropVariant { return PropVariant{vt: VTInt32, bits: uint64(uint32(v))} }

// Uint64Value returns an unsigned 64-bit variant.
func Uint64Value(v uint64) PropVariant { return PropVariant{vt: VTUint64, bits: v} }

// Float32Value returns a 32-bit float variant.
func Float32Value(v float32) PropVariant {
	return PropVariant{vt: VTFloat, bits: uint64(math.Float32bits(v))}
}

// GUIDValue returns a 128-bit type tag variant.
func GUIDValue(g uuid.UUID) PropVariant { return PropVariant{vt: VTGUID, guid: g} }

// BoolValue returns a boolean variant.
func BoolValue(b bool) PropVariant {
	v := PropVariant{vt: VTBool}
	if b {
		v.bits = 1
	}
	return v
}

// Type returns the variant's type tag.
func (v PropVariant) Type() VarType { return v.vt }

// IsEmpty reports whether the variant holds no value.
func (v PropVariant) IsEmpty() bool { return v.vt == VTEmpty }

// UTF16 returns a copy of the raw code units of a text variant.
func (v PropVariant) UTF16() []uint16 { return slices.Clone(v.text) }

// String renders the value for display regardless of its type.
func (v PropVariant) String() string {
	switch v.vt {
	case VTString:
		return string(utf16.Decode(v.text))
	case VTUint32, VTUint64:
		return fmt.Sprintf("%d", v.bits)
	case VTInt32:
		return fmt.Sprintf("%d", int32(uint32(v.bits)))
	case VTFloat:
		return fmt.Sprintf("%g", math.Float32frombits(uint32(v.bits)))
	case VTBool:
		return fmt.Sprintf("%t", v.bits != 0)
	case VTGUID:
		return "{" + v.guid.String() + "}"
	default:
		return ""
	}
}

// PropertyBag is the opaque property-value set of one round trip. Keys keep
// their insertion order.
type PropertyBag struct {
	keys   []PropertyKey
	values map[PropertyKey]PropVariant
}

// NewPropertyBag returns an empty bag.
func NewPropertyBag() *PropertyBag {
	return &PropertyBag{values: make(map[PropertyKey]PropVariant)}
}

// Set stores v under key, replacing any previous value.
func (b *PropertyBag) Set(key PropertyKey, v PropVariant) *PropertyBag {
	if b.values == nil {
		b.values = make(map[PropertyKey]PropVariant)
	}
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = v
	return b
}

// Get returns the raw variant stored under key.
func (b *PropertyBag) Get(key PropertyKey) (PropVariant, bool) {
	if b == nil {
		return PropVariant{}, false
	}
	v, ok := b.values[key]
	return v, ok
}

// Has reports whether key is present.
func (b *PropertyBag) Has(key PropertyKey) bool {
	_, ok := b.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (b *PropertyBag) Keys() []PropertyKey {
	if b == nil {
		return nil
	}
	return slices.Clone(b.keys)
}

// Len returns the number of stored values.
func (b *PropertyBag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

func (b *PropertyBag) typed(key PropertyKey, want VarType) (PropVariant, error) {
	v, ok := b.Get(key)
	if !ok {
		return v, &Error{Code: CodeTypeMismatch, Op: "get-property", Detail: key.String() + " is missing"}
	}
	if v.vt != want {
		return v, &Error{
			Code:   CodeTypeMismatch,
			Op:     "get-property",
			Detail: fmt.Sprintf("%s holds %s, want %s", key, v.vt, want),
		}
	}
	return v, nil
}

// String returns the UTF-16 text stored under key, decoded.
func (b *PropertyBag) String(key PropertyKey) (string, error) {
	v, err := b.typed(key, VTString)
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(v.text)), nil
}

// Uint32 returns the unsigned 32-bit value stored under key.
func (b *PropertyBag) Uint32(key PropertyKey) (uint32, error) {
	v, err := b.typed(key, VTUint32)
	return uint32(v.bits), err
}

// Int32 returns the signed 32-bit value stored under key.
func (b *PropertyBag) Int32(key PropertyKey) (int32, error) {
	v, err := b.typed(key, VTInt32)
	return int32(uint32(v.bits)), err
}

// Uint64 returns the unsigned 64-bit value stored under key.
func (b *PropertyBag) Uint64(key PropertyKey) (uint64, error) {
	v, err := b.typed(key, VTUint64)
	return v.bits, err
}

// Float32 returns the 32-bit float stored under key.
func (b *PropertyBag) Float32(key PropertyKey) (float32, error) {
	v, err := b.typed(key, VTFloat)
	return math.Float32frombits(uint32(v.bits)), err
}

// GUID returns the type tag stored under key.
func (b *PropertyBag) GUID(key PropertyKey) (uuid.UUID, error) {
	v, err := b.typed(key, VTGUID)
	return v.guid, err
}

// Bool returns the boolean stored under key.
func (b *PropertyBag) Bool(key PropertyKey) (bool, error) {
	v, err := b.typed(key, VTBool)
	return v.bits != 0, err
}

// SetString stores s as UTF-16 text.
func (b *PropertyBag) SetString(key PropertyKey, s string) *PropertyBag {
	return b.Set(key, StringValue(s))
}

// SetUint32 stores an unsigned 32-bit value.
func (b *PropertyBag) SetUint32(key PropertyKey, v uint32) *PropertyBag {
	return b.Set(key, Uint32Value(v))
}

// SetUint64 stores an unsigned 64-bit value.
func (b *PropertyBag) SetUint64(key PropertyKey, v uint64) *PropertyBag {
	return b.Set(key, Uint64Value(v))
}

// SetGUID stores a type tag.
func (b *PropertyBag) SetGUID(key PropertyKey, g uuid.UUID) *PropertyBag {
	return b.Set(key, GUIDValue(g))
}

// SetBool stores a boolean.
func (b *PropertyBag) SetBool(key PropertyKey, v bool) *PropertyBag {
	return b.Set(key, BoolValue(v))
}
