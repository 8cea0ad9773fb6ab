package bytecode

import (
	"bytes"
	"encoding/binary"

	"corescript/internal/ir"
	"corescript/internal/types"
)

// WriteConfig serializes bc to the on-disk layout described in §6.6: a
// concatenation of property records (opcode byte plus payload), terminated
// by a single 0x00 byte.
func WriteConfig(bc *ir.BinaryConfig) []byte {
	var out bytes.Buffer
	for _, p := range bc.Properties {
		writeProperty(&out, p)
	}
	out.WriteByte(0x00)
	return out.Bytes()
}

func writeProperty(out *bytes.Buffer, p *ir.Property) {
	out.WriteByte(byte(p.Opcode))
	if p.Empty {
		return
	}
	if p.Entries != nil {
		binary.Write(out, binary.BigEndian, uint16(len(p.Entries)))
		for _, e := range p.Entries {
			writePropertyValue(out, e.Key)
			writePropertyValue(out, e.Value)
		}
		return
	}
	for _, v := range p.Values {
		writePropertyValue(out, v)
	}
}

func writePropertyValue(out *bytes.Buffer, v ir.PropertyValue) {
	switch v.Kind {
	case types.StackInt:
		binary.Write(out, binary.BigEndian, v.Int)
	case types.StackLong:
		binary.Write(out, binary.BigEndian, v.Long)
	case types.StackString:
		writeString(out, v.Str)
	}
}
