package loaders

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const spirvMagic = 0x07230203

// BinaryLoader reads compiled SPIR-V.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string) (*Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	code, err := BytesToBytecode(buf)
	if err != nil {
		return nil, fmt.Errorf("loading shader %s: %w", path, err)
	}

	return &Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		Kind:     ResourceKindShader,
		DataSize: uint64(len(buf)),
		Data:     code,
	}, nil
}

// BytesToBytecode turns little endian SPIR-V bytes into words.
func BytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V size %d is not a positive multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}
	if byteCode[0] != spirvMagic {
		return nil, fmt.Errorf("bad SPIR-V magic %#08x", byteCode[0])
	}
	return byteCode, nil
}
