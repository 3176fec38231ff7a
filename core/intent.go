package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CallIntent describes a ledger state-changing call before any chain-specific
// encoding: the module-qualified entry function, its type arguments, and its
// positional arguments. Intents are immutable once constructed.
type CallIntent struct {
	Function string   // "0xaddr::module::function"
	TypeArgs []string // fully-qualified type tags, in order
	Args     []any    // closed scalar set, see EncodeArgument
}

// FunctionID is the parsed form of a module-qualified function identifier.
type FunctionID struct {
	ModuleAddress Address
	ModuleName    string
	FunctionName  string
}

// ParseFunctionID splits "0xaddr::module::function" into its parts.
func ParseFunctionID(s string) (FunctionID, error) {
	var id FunctionID

	parts := strings.Split(s, "::")
	if len(parts) != 3 {
		return id, fmt.Errorf("%w: function %q is not module-qualified", ErrInvalidIntent, s)
	}

	addr, err := ParseAddress(parts[0])
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
	}
	if parts[1] == "" || parts[2] == "" {
		return id, fmt.Errorf("%w: function %q has an empty segment", ErrInvalidIntent, s)
	}

	id.ModuleAddress = addr
	id.ModuleName = parts[1]
	id.FunctionName = parts[2]
	return id, nil
}

// Validate checks that the intent's function identifier parses and that every
// argument is encodable.
func (i CallIntent) Validate() error {
	if _, err := ParseFunctionID(i.Function); err != nil {
		return err
	}
	for n, arg := range i.Args {
		if _, err := EncodeArgument(arg); err != nil {
			return fmt.Errorf("argument %d: %w", n, err)
		}
	}
	return nil
}

// ArgumentFromJSON converts a typed JSON argument into the Go value
// EncodeArgument accepts. Integer values may be JSON numbers or decimal
// strings; u64 callers should prefer strings to avoid float truncation.
func ArgumentFromJSON(typ string, raw json.RawMessage) (any, error) {
	switch {
	case typ == "u8" || typ == "u16" || typ == "u32" || typ == "u64":
		n, err := jsonUint(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s value: %v", ErrInvalidIntent, typ, err)
		}
		return castUint(typ, n)

	case typ == "bool":
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("%w: bool value: %v", ErrInvalidIntent, err)
		}
		return b, nil

	case typ == "string":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: string value: %v", ErrInvalidIntent, err)
		}
		return s, nil

	case typ == "address":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: address value: %v", ErrInvalidIntent, err)
		}
		addr, err := ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
		}
		return addr, nil

	case typ == "hex":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: hex value: %v", ErrInvalidIntent, err)
		}
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("%w: hex value: %v", ErrInvalidIntent, err)
		}
		return b, nil

	case strings.HasPrefix(typ, "vector<") && strings.HasSuffix(typ, ">"):
		inner := typ[len("vector<") : len(typ)-1]
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: vector value: %v", ErrInvalidIntent, err)
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			v, err := ArgumentFromJSON(inner, item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: unsupported argument type %q", ErrInvalidIntent, typ)
}

func jsonUint(raw json.RawMessage) (uint64, error) {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}

	switch x := v.(type) {
	case json.Number:
		return strconv.ParseUint(x.String(), 10, 64)
	case string:
		return strconv.ParseUint(x, 10, 64)
	default:
		return 0, fmt.Errorf("expected number or numeric string")
	}
}

func castUint(typ string, n uint64) (any, error) {
	switch typ {
	case "u8":
		if n > 0xff {
			return nil, fmt.Errorf("%w: u8 value %d out of range", ErrInvalidIntent, n)
		}
		return uint8(n), nil
	case "u16":
		if n > 0xffff {
			return nil, fmt.Errorf("%w: u16 value %d out of range", ErrInvalidIntent, n)
		}
		return uint16(n), nil
	case "u32":
		if n > 0xffffffff {
			return nil, fmt.Errorf("%w: u32 value %d out of range", ErrInvalidIntent, n)
		}
		return uint32(n), nil
	default:
		return n, nil
	}
}
