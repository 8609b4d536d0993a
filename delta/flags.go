package delta

// recordOp is the two-bit operation tag packed into every Add/Update
// record's flags byte (msb side). Removes never carry a flags byte: the
// remove list on the wire is just a run of bare NodeIds.
type recordOp byte

const (
	recordOpAdd    recordOp = 1
	recordOpUpdate recordOp = 2
)

// Flags byte layout, msb to lsb: op(2 bits) | has_parent | has_type |
// has_value | has_cdelta | is_cfull | reserved(1 bit).
const (
	flagHasParent byte = 1 << 5
	flagHasType   byte = 1 << 4
	flagHasValue  byte = 1 << 3
	flagHasCDelta byte = 1 << 2
	flagIsCFull   byte = 1 << 1
)

type recordFlags struct {
	op        recordOp
	hasParent bool
	hasType   bool
	hasValue  bool
	hasCDelta bool
	isCFull   bool
}

func (f recordFlags) encode() byte {
	b := byte(f.op) << 6
	if f.hasParent {
		b |= flagHasParent
	}
	if f.hasType {
		b |= flagHasType
	}
	if f.hasValue {
		b |= flagHasValue
	}
	if f.hasCDelta {
		b |= flagHasCDelta
	}
	if f.isCFull {
		b |= flagIsCFull
	}
	return b
}

func decodeFlags(b byte) recordFlags {
	return recordFlags{
		op:        recordOp(b >> 6),
		hasParent: b&flagHasParent != 0,
		hasType:   b&flagHasType != 0,
		hasValue:  b&flagHasValue != 0,
		hasCDelta: b&flagHasCDelta != 0,
		isCFull:   b&flagIsCFull != 0,
	}
}
