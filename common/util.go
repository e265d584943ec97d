package common

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Assert simple assertion with message formatting
func Assert(cond bool, format string, p ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, p...))
	}
}

// Concat concatenates bytes of byte-able objects
func Concat(par ...interface{}) []byte {
	var buf bytes.Buffer
	for _, p := range par {
		switch p := p.(type) {
		case []byte:
			buf.Write(p)
		case byte:
			buf.WriteByte(p)
		case string:
			buf.Write([]byte(p))
		case interface{ Bytes() []byte }:
			buf.Write(p.Bytes())
		default:
			Assert(false, "Concat: unsupported type %T", p)
		}
	}
	return buf.Bytes()
}

// ---------------------------------------------------------------------------
// r/w utility functions used by the binary codec

func ReadByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func WriteByte(w io.Writer, val byte) error {
	_, err := w.Write([]byte{val})
	return err
}

func ReadUint16(r io.Reader, pval *uint16) error {
	var tmp [2]byte
	if _, err := r.Read(tmp[:]); err != nil {
		return err
	}
	*pval = binary.LittleEndian.Uint16(tmp[:])
	return nil
}

func WriteUint16(w io.Writer, val uint16) error {
	_, err := w.Write(Uint16To2Bytes(val))
	return err
}

func Uint16To2Bytes(val uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], val)
	return tmp[:]
}

func ReadUint32(r io.Reader, pval *uint32) error {
	var tmp [4]byte
	if _, err := r.Read(tmp[:]); err != nil {
		return err
	}
	*pval = binary.LittleEndian.Uint32(tmp[:])
	return nil
}

func WriteUint32(w io.Writer, val uint32) error {
	_, err := w.Write(Uint32To4Bytes(val))
	return err
}

func Uint32To4Bytes(val uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], val)
	return tmp[:]
}

func Uint32From4Bytes(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, ErrCorruptedData
	}
	return binary.LittleEndian.Uint32(b), nil
}

func MustUint32From4Bytes(b []byte) uint32 {
	ret, err := Uint32From4Bytes(b)
	Assert(err == nil, "MustUint32From4Bytes: %v", err)
	return ret
}

func ReadBytes16(r io.Reader) ([]byte, error) {
	var length uint16
	if err := ReadUint16(r, &length); err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}
	ret := make([]byte, length)
	if _, err := r.Read(ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func WriteBytes16(w io.Writer, data []byte) error {
	if len(data) > math.MaxUint16 {
		panic(fmt.Sprintf("WriteBytes16: too long data (%v)", len(data)))
	}
	if err := WriteUint16(w, uint16(len(data))); err != nil {
		return err
	}
	if len(data) != 0 {
		_, err := w.Write(data)
		return err
	}
	return nil
}
