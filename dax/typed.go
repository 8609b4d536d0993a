package dax

import (
	"encoding/binary"
	"math"

	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/typeregistry"
)

// The typed accessors below are thin encode/decode shims over
// TryGetValueBytes/TrySetValueBytes for typeregistry's built-in types,
// matching spec.md §4.E's try_get_bool/try_get_vector/... accessor list.
// A Tree configured with a different core.TypeRegistry can still use the
// byte-level methods directly; these exist for the common case.

func (v *Visitor) TryGetBool() (bool, bool, error) {
	b, ok, err := v.TryGetValueBytes(typeregistry.TypeBool)
	if err != nil || !ok {
		return false, ok, err
	}
	return b[0] != 0, true, nil
}

func (v *Visitor) TrySetBool(val bool) (core.Outcome, error) {
	b := byte(0)
	if val {
		b = 1
	}
	return v.TrySetValueBytes(typeregistry.TypeBool, []byte{b})
}

func (v *Visitor) TryGetInt32() (int32, bool, error) {
	b, ok, err := v.TryGetValueBytes(typeregistry.TypeInt32)
	if err != nil || !ok {
		return 0, ok, err
	}
	return int32(binary.LittleEndian.Uint32(b)), true, nil
}

func (v *Visitor) TrySetInt32(val int32) (core.Outcome, error) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(val))
	return v.TrySetValueBytes(typeregistry.TypeInt32, b)
}

func (v *Visitor) TryGetInt64() (int64, bool, error) {
	b, ok, err := v.TryGetValueBytes(typeregistry.TypeInt64)
	if err != nil || !ok {
		return 0, ok, err
	}
	return int64(binary.LittleEndian.Uint64(b)), true, nil
}

func (v *Visitor) TrySetInt64(val int64) (core.Outcome, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(val))
	return v.TrySetValueBytes(typeregistry.TypeInt64, b)
}

func (v *Visitor) TryGetFloat32() (float32, bool, error) {
	b, ok, err := v.TryGetValueBytes(typeregistry.TypeFloat32)
	if err != nil || !ok {
		return 0, ok, err
	}
	return typeregistry.DecodeFloat32(b), true, nil
}

func (v *Visitor) TrySetFloat32(val float32) (core.Outcome, error) {
	b := make([]byte, 4)
	typeregistry.EncodeFloat32(b, val)
	return v.TrySetValueBytes(typeregistry.TypeFloat32, b)
}

func (v *Visitor) TryGetFloat64() (float64, bool, error) {
	b, ok, err := v.TryGetValueBytes(typeregistry.TypeFloat64)
	if err != nil || !ok {
		return 0, ok, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), true, nil
}

func (v *Visitor) TrySetFloat64(val float64) (core.Outcome, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(val))
	return v.TrySetValueBytes(typeregistry.TypeFloat64, b)
}

func (v *Visitor) TryGetString() (string, bool, error) {
	b, ok, err := v.TryGetValueBytes(typeregistry.TypeString)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(b), true, nil
}

func (v *Visitor) TrySetString(val string) (core.Outcome, error) {
	return v.TrySetValueBytes(typeregistry.TypeString, []byte(val))
}

func (v *Visitor) TryGetVector3() (typeregistry.Vector3, bool, error) {
	b, ok, err := v.TryGetValueBytes(typeregistry.TypeVector3)
	if err != nil || !ok {
		return typeregistry.Vector3{}, ok, err
	}
	return typeregistry.Vector3{
		X: typeregistry.DecodeFloat32(b[0:4]),
		Y: typeregistry.DecodeFloat32(b[4:8]),
		Z: typeregistry.DecodeFloat32(b[8:12]),
	}, true, nil
}

func (v *Visitor) TrySetVector3(val typeregistry.Vector3) (core.Outcome, error) {
	b := make([]byte, 12)
	typeregistry.EncodeFloat32(b[0:4], val.X)
	typeregistry.EncodeFloat32(b[4:8], val.Y)
	typeregistry.EncodeFloat32(b[8:12], val.Z)
	return v.TrySetValueBytes(typeregistry.TypeVector3, b)
}

func (v *Visitor) TryGetRotator() (typeregistry.Rotator, bool, error) {
	b, ok, err := v.TryGetValueBytes(typeregistry.TypeRotator)
	if err != nil || !ok {
		return typeregistry.Rotator{}, ok, err
	}
	return typeregistry.Rotator{
		Pitch: typeregistry.DecodeFloat32(b[0:4]),
		Yaw:   typeregistry.DecodeFloat32(b[4:8]),
		Roll:  typeregistry.DecodeFloat32(b[8:12]),
	}, true, nil
}

func (v *Visitor) TrySetRotator(val typeregistry.Rotator) (core.Outcome, error) {
	b := make([]byte, 12)
	typeregistry.EncodeFloat32(b[0:4], val.Pitch)
	typeregistry.EncodeFloat32(b[4:8], val.Yaw)
	typeregistry.EncodeFloat32(b[8:12], val.Roll)
	return v.TrySetValueBytes(typeregistry.TypeRotator, b)
}
