package sui

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	bin "github.com/gagliardetto/binary"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
)

// BCS enum tags used by programmable transactions.
const (
	txKindProgrammable = 0

	callArgPure   = 0
	callArgObject = 1

	objectArgShared = 1

	commandMoveCall = 0

	argumentInput = 1

	typeTagBool    = 0
	typeTagU8      = 1
	typeTagU64     = 2
	typeTagU128    = 3
	typeTagAddress = 4
	typeTagVector  = 6
	typeTagStruct  = 7
	typeTagU16     = 8
	typeTagU32     = 9
	typeTagU256    = 10
)

var ErrInvalidTypeTag = errors.New("invalid type tag")

// Argument references a transaction input.
type Argument struct {
	index uint16
}

type sharedObject struct {
	id             [32]byte
	initialVersion uint64
	mutable        bool
}

type callArg struct {
	pure   []byte
	object *sharedObject
}

type moveCall struct {
	pkg      [32]byte
	module   string
	function string
	typeArgs []string
	args     []Argument
}

// ProgrammableTx builds the TransactionKind bytes sent to dev-inspect.
// Shared objects are deduplicated, so the same pool used by several calls is
// one input.
type ProgrammableTx struct {
	inputs   []callArg
	objects  map[[32]byte]uint16
	commands []moveCall
}

func NewProgrammableTx() *ProgrammableTx {
	return &ProgrammableTx{objects: make(map[[32]byte]uint16)}
}

func (tx *ProgrammableTx) addInput(a callArg) Argument {
	tx.inputs = append(tx.inputs, a)
	return Argument{index: uint16(len(tx.inputs) - 1)}
}

func (tx *ProgrammableTx) PureBool(v bool) Argument {
	if v {
		return tx.addInput(callArg{pure: []byte{1}})
	}
	return tx.addInput(callArg{pure: []byte{0}})
}

func (tx *ProgrammableTx) PureU64(v uint64) Argument {
	buf := new(bytes.Buffer)
	_ = bin.NewBinEncoder(buf).WriteUint64(v, bin.LE)
	return tx.addInput(callArg{pure: buf.Bytes()})
}

// PureU128 encodes v as 16 little-endian bytes.
func (tx *ProgrammableTx) PureU128(v *big.Int) (Argument, error) {
	if v.Sign() < 0 || v.BitLen() > 128 {
		return Argument{}, fmt.Errorf("u128 argument out of range: %s", v)
	}
	lo := new(big.Int).And(v, new(big.Int).SetUint64(^uint64(0))).Uint64()
	hi := new(big.Int).Rsh(v, 64).Uint64()
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteUint64(lo, bin.LE)
	_ = enc.WriteUint64(hi, bin.LE)
	return tx.addInput(callArg{pure: buf.Bytes()}), nil
}

func (tx *ProgrammableTx) PureAddress(addr string) (Argument, error) {
	raw, err := addressBytes(addr)
	if err != nil {
		return Argument{}, err
	}
	return tx.addInput(callArg{pure: raw[:]}), nil
}

// PureU32Vector encodes a vector<u32>.
func (tx *ProgrammableTx) PureU32Vector(vs []uint32) Argument {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteUVarInt(len(vs))
	for _, v := range vs {
		_ = enc.WriteUint32(v, bin.LE)
	}
	return tx.addInput(callArg{pure: buf.Bytes()})
}

// SharedObject adds a shared object input once and returns its argument.
// A later mutable reference upgrades an earlier immutable one.
func (tx *ProgrammableTx) SharedObject(id string, initialVersion uint64, mutable bool) (Argument, error) {
	raw, err := addressBytes(id)
	if err != nil {
		return Argument{}, err
	}
	if idx, ok := tx.objects[raw]; ok {
		if mutable {
			tx.inputs[idx].object.mutable = true
		}
		return Argument{index: idx}, nil
	}
	arg := tx.addInput(callArg{object: &sharedObject{id: raw, initialVersion: initialVersion, mutable: mutable}})
	tx.objects[raw] = arg.index
	return arg, nil
}

// MoveCall appends pkg::module::function<typeArgs>(args).
func (tx *ProgrammableTx) MoveCall(pkg, module, function string, typeArgs []string, args ...Argument) error {
	raw, err := addressBytes(pkg)
	if err != nil {
		return err
	}
	for _, t := range typeArgs {
		if _, err := ParseTypeTag(t); err != nil {
			return err
		}
	}
	tx.commands = append(tx.commands, moveCall{pkg: raw, module: module, function: function, typeArgs: typeArgs, args: args})
	return nil
}

func (tx *ProgrammableTx) CommandCount() int {
	return len(tx.commands)
}

// Encode serializes TransactionKind::ProgrammableTransaction.
func (tx *ProgrammableTx) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)

	if err := enc.WriteUVarInt(txKindProgrammable); err != nil {
		return nil, err
	}
	if err := enc.WriteUVarInt(len(tx.inputs)); err != nil {
		return nil, err
	}
	for _, in := range tx.inputs {
		if err := encodeCallArg(enc, in); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteUVarInt(len(tx.commands)); err != nil {
		return nil, err
	}
	for _, c := range tx.commands {
		if err := encodeMoveCall(enc, c); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeCallArg(enc *bin.Encoder, a callArg) error {
	if a.object == nil {
		if err := enc.WriteUVarInt(callArgPure); err != nil {
			return err
		}
		return writeVecU8(enc, a.pure)
	}
	if err := enc.WriteUVarInt(callArgObject); err != nil {
		return err
	}
	if err := enc.WriteUVarInt(objectArgShared); err != nil {
		return err
	}
	if err := enc.WriteBytes(a.object.id[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint64(a.object.initialVersion, bin.LE); err != nil {
		return err
	}
	return enc.WriteBool(a.object.mutable)
}

func encodeMoveCall(enc *bin.Encoder, c moveCall) error {
	if err := enc.WriteUVarInt(commandMoveCall); err != nil {
		return err
	}
	if err := enc.WriteBytes(c.pkg[:], false); err != nil {
		return err
	}
	if err := writeString(enc, c.module); err != nil {
		return err
	}
	if err := writeString(enc, c.function); err != nil {
		return err
	}
	if err := enc.WriteUVarInt(len(c.typeArgs)); err != nil {
		return err
	}
	for _, t := range c.typeArgs {
		tag, err := ParseTypeTag(t)
		if err != nil {
			return err
		}
		if err := tag.encode(enc); err != nil {
			return err
		}
	}
	if err := enc.WriteUVarInt(len(c.args)); err != nil {
		return err
	}
	for _, a := range c.args {
		if err := enc.WriteUVarInt(argumentInput); err != nil {
			return err
		}
		if err := enc.WriteUint16(a.index, bin.LE); err != nil {
			return err
		}
	}
	return nil
}

func writeVecU8(enc *bin.Encoder, b []byte) error {
	if err := enc.WriteUVarInt(len(b)); err != nil {
		return err
	}
	return enc.WriteBytes(b, false)
}

func writeString(enc *bin.Encoder, s string) error {
	return writeVecU8(enc, []byte(s))
}

func addressBytes(addr string) ([32]byte, error) {
	var out [32]byte
	norm, err := domain.NormalizeAddress(addr)
	if err != nil {
		return out, err
	}
	raw, err := hex.DecodeString(norm[2:])
	if err != nil {
		return out, err
	}
	copy(out[:], raw)
	return out, nil
}

// TypeTag is a parsed Move type.
type TypeTag struct {
	kind    byte
	elem    *TypeTag
	address [32]byte
	module  string
	name    string
	params  []TypeTag
}

// ParseTypeTag parses primitives, vector<T> and 0xaddr::module::Name<T...>.
func ParseTypeTag(s string) (TypeTag, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "bool":
		return TypeTag{kind: typeTagBool}, nil
	case "u8":
		return TypeTag{kind: typeTagU8}, nil
	case "u16":
		return TypeTag{kind: typeTagU16}, nil
	case "u32":
		return TypeTag{kind: typeTagU32}, nil
	case "u64":
		return TypeTag{kind: typeTagU64}, nil
	case "u128":
		return TypeTag{kind: typeTagU128}, nil
	case "u256":
		return TypeTag{kind: typeTagU256}, nil
	case "address":
		return TypeTag{kind: typeTagAddress}, nil
	}
	if strings.HasPrefix(s, "vector<") && strings.HasSuffix(s, ">") {
		elem, err := ParseTypeTag(s[len("vector<") : len(s)-1])
		if err != nil {
			return TypeTag{}, err
		}
		return TypeTag{kind: typeTagVector, elem: &elem}, nil
	}

	norm, err := domain.NormalizeCoinType(s)
	if err != nil {
		return TypeTag{}, fmt.Errorf("%w: %q", ErrInvalidTypeTag, s)
	}
	head, params := norm, ""
	if i := strings.IndexByte(norm, '<'); i >= 0 {
		head, params = norm[:i], norm[i+1:len(norm)-1]
	}
	parts := strings.Split(head, "::")
	addr, err := addressBytes(parts[0])
	if err != nil {
		return TypeTag{}, err
	}
	tag := TypeTag{kind: typeTagStruct, address: addr, module: parts[1], name: parts[2]}
	if params != "" {
		for _, p := range splitParams(params) {
			pt, err := ParseTypeTag(p)
			if err != nil {
				return TypeTag{}, err
			}
			tag.params = append(tag.params, pt)
		}
	}
	return tag, nil
}

func splitParams(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

func (t TypeTag) encode(enc *bin.Encoder) error {
	if err := enc.WriteUVarInt(int(t.kind)); err != nil {
		return err
	}
	switch t.kind {
	case typeTagVector:
		return t.elem.encode(enc)
	case typeTagStruct:
		if err := enc.WriteBytes(t.address[:], false); err != nil {
			return err
		}
		if err := writeString(enc, t.module); err != nil {
			return err
		}
		if err := writeString(enc, t.name); err != nil {
			return err
		}
		if err := enc.WriteUVarInt(len(t.params)); err != nil {
			return err
		}
		for _, p := range t.params {
			if err := p.encode(enc); err != nil {
				return err
			}
		}
	}
	return nil
}
