package quest

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeValue serializes a value as a type byte followed by its payload
func EncodeValue(v Value) []byte {
	switch val := v.(type) {
	case Text:
		return append([]byte{byte(KindText)}, val...)
	case Number:
		buf := make([]byte, 9)
		buf[0] = byte(KindNumber)
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(float64(val)))
		return buf
	case Bool:
		if val {
			return []byte{byte(KindBool), 1}
		}
		return []byte{byte(KindBool), 0}
	case Ref:
		return append([]byte{byte(KindRef)}, val...)
	default:
		panic(fmt.Sprintf("cannot encode value type: %T", v))
	}
}

// DecodeValue deserializes a value produced by EncodeValue
func DecodeValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty value encoding")
	}

	payload := data[1:]
	switch Kind(data[0]) {
	case KindText:
		return Text(payload), nil
	case KindNumber:
		if len(payload) != 8 {
			return nil, fmt.Errorf("number value must be 8 bytes, got %d", len(payload))
		}
		return Number(math.Float64frombits(binary.BigEndian.Uint64(payload))), nil
	case KindBool:
		if len(payload) != 1 {
			return nil, fmt.Errorf("bool value must be 1 byte, got %d", len(payload))
		}
		return Bool(payload[0] != 0), nil
	case KindRef:
		return Ref(payload), nil
	default:
		return nil, fmt.Errorf("unknown value type: %d", data[0])
	}
}
