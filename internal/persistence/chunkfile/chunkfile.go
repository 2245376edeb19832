// Package chunkfile reads and writes single-chunk block files.
//
// A file is three little-endian int32 dimensions (x, y, z) followed by one
// little-endian uint16 per cell with x outermost and z innermost. There is
// no magic, version or compression.
package chunkfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	SizeX = 16
	SizeY = 256
	SizeZ = 16

	// RegionSize is the number of chunks per region directory along x and z.
	RegionSize = 32

	headerLen = 12
)

var ErrCorruptChunkFile = errors.New("corrupt chunk file")

type Dims struct {
	X, Y, Z int
}

func (d Dims) Cells() int { return d.X * d.Y * d.Z }

func Encode(w io.Writer, blocks []uint16, d Dims) error {
	if len(blocks) != d.Cells() {
		return fmt.Errorf("encode chunk: %d blocks for dims %dx%dx%d", len(blocks), d.X, d.Y, d.Z)
	}
	bw := bufio.NewWriterSize(w, 64*1024)
	var hdr [headerLen]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(int32(d.X)))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(int32(d.Y)))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(int32(d.Z)))
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}
	var tmp [2]byte
	for _, b := range blocks {
		binary.LittleEndian.PutUint16(tmp[:], b)
		if _, err := bw.Write(tmp[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode reads a whole chunk file. Any structural problem is reported as an
// error wrapping ErrCorruptChunkFile; I/O errors are returned as they are.
func Decode(r io.Reader) ([]uint16, Dims, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, Dims{}, err
	}
	return decodeBytes(raw)
}

func decodeBytes(raw []byte) ([]uint16, Dims, error) {
	if len(raw) < headerLen {
		return nil, Dims{}, fmt.Errorf("%w: short header (%d bytes)", ErrCorruptChunkFile, len(raw))
	}
	d := Dims{
		X: int(int32(binary.LittleEndian.Uint32(raw[0:]))),
		Y: int(int32(binary.LittleEndian.Uint32(raw[4:]))),
		Z: int(int32(binary.LittleEndian.Uint32(raw[8:]))),
	}
	if d != (Dims{X: SizeX, Y: SizeY, Z: SizeZ}) {
		return nil, d, fmt.Errorf("%w: dims %dx%dx%d", ErrCorruptChunkFile, d.X, d.Y, d.Z)
	}
	body := raw[headerLen:]
	if len(body) != d.Cells()*2 {
		return nil, d, fmt.Errorf("%w: body is %d bytes want %d", ErrCorruptChunkFile, len(body), d.Cells()*2)
	}
	blocks := make([]uint16, d.Cells())
	for i := range blocks {
		blocks[i] = binary.LittleEndian.Uint16(body[i*2:])
	}
	return blocks, d, nil
}

// Load reads the chunk at path. A missing file yields an error satisfying
// errors.Is(err, fs.ErrNotExist).
func Load(path string) ([]uint16, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	blocks, _, err := decodeBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return blocks, nil
}

// Save writes the chunk through a temp file and a rename, creating parent
// directories as needed.
func Save(path string, blocks []uint16) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Grow(headerLen + len(blocks)*2)
	if err := Encode(&buf, blocks, Dims{X: SizeX, Y: SizeY, Z: SizeZ}); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Quarantine moves a bad file aside so a fresh chunk can take its place
// without destroying the evidence.
func Quarantine(path string) (string, error) {
	dst := path + ".corrupt-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := os.Rename(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}
