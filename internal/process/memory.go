package process

import (
	"encoding/binary"
	"math"
)

// memSize is the flat process image size, the 64 KiB design point from
// spec.md §3.
const memSize = 65536

// framePtr is the fixed frame base offset locals grow upward from,
// matching spec.md §3's example layout exactly.
const framePtr = 60000

// align4 rounds up to the next 4-byte boundary, for the heap bump
// pointer's initial value.
func align4(n int) int {
	return (n + 3) &^ 3
}

func loadFloat32(mem []byte, addr int) float32 {
	bits := binary.LittleEndian.Uint32(mem[addr : addr+4])
	return math.Float32frombits(bits)
}

func storeFloat32(mem []byte, addr int, v float32) {
	binary.LittleEndian.PutUint32(mem[addr:addr+4], math.Float32bits(v))
}

func loadFloat64(mem []byte, addr int) float64 {
	bits := binary.LittleEndian.Uint64(mem[addr : addr+8])
	return math.Float64frombits(bits)
}

func storeFloat64(mem []byte, addr int, v float64) {
	binary.LittleEndian.PutUint64(mem[addr:addr+8], math.Float64bits(v))
}
